package uavobj

// Record types for the shared vehicle state. Each one is a flat bag of
// fields in the sensor's native units; range checking belongs to the
// producers, not the store.

// AccelsData is a single accelerometer sample (specific force, m/s²).
type AccelsData struct {
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	Z           float64 `json:"z"`
	Temperature float64 `json:"temperature"` // °C
}

// GyrosData is a single gyroscope sample (angular rate, deg/s).
type GyrosData struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// GyrosBiasData is the angular-rate offset currently estimated for the
// gyros. Written by the attitude estimator, read by sensor producers.
type GyrosBiasData struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// BaroAltitudeData carries the barometric solution. Producers that only
// know about altitude must update it through the store so the remaining
// fields survive.
type BaroAltitudeData struct {
	Altitude    float64 `json:"altitude"`    // m
	Temperature float64 `json:"temperature"` // °C
	Pressure    float64 `json:"pressure"`    // kPa
}

// GPSPositionData is the last GPS fix.
type GPSPositionData struct {
	Latitude    float64 `json:"lat"` // decimal degrees
	Longitude   float64 `json:"lon"` // decimal degrees
	Altitude    float64 `json:"altitude"`
	Status      string  `json:"status"` // "NoFix", "Fix2D", "Fix3D"
	Satellites  int     `json:"satellites"`
	Groundspeed float64 `json:"groundspeed"` // m/s
	Heading     float64 `json:"heading"`     // degrees
}

// HomeLocationData is the surveyed reference point that anchors the local
// coordinate frame: position plus the expected magnetic field Be at that
// point, in mGauss.
type HomeLocationData struct {
	Latitude  float64    `json:"lat"`
	Longitude float64    `json:"lon"`
	Altitude  float64    `json:"altitude"`
	Be        [3]float64 `json:"be"`
	Set       bool       `json:"set"`
}

// MagnetometerData is a single magnetometer sample (mGauss).
type MagnetometerData struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}
