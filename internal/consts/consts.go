package consts

const (
	CHARGE    = 1.6021918e-19 // Elementary charge (C)
	BOLTZMANN = 1.3806226e-23 // Boltzmann constant (J/K)
	KELVIN    = 273.15        // Kelvin temperature (K)
	EPSILON0  = 8.854187e-14  // Vacuum permittivity (F/cm)

	ROOM_TEMP = 300.0 // Default device temperature (K)
	MU_REF    = 1.0   // Mobility reference (cm^2/(V s))
)
