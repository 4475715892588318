// Copyright (c) 2026 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.8.22
//

package goins

const (
	PI = 3.1415926535897932 // Pi
	C  = 2.99792458e8       // Speed of light [m/s]

	// WGS-84 ellipsoid
	Re     = 6378137.0           // Semi-major axis [m]
	Rp     = 6356752.31425       // Semi-minor axis [m]
	Fe     = 1.0 / 298.257223563 // Flattening
	E2     = 0.00669437999014    // Eccentricity squared
	OmegaE = 7.292115e-5         // Earth rotation rate [rad/s]
	MuE    = 3.986004418e14      // Earth gravitational constant [m^3/s^2]

	// Somigliana gravity model
	G0 = 9.7803253359 // Equatorial gravity [m/s^2]
	GK = 0.001931853  // Gravity formula constant
)
