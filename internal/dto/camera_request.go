package dto

// CameraRequest is the body of camera create/update calls. Nil fields are
// left untouched on update.
type CameraRequest struct {
	Name       *string `json:"name"`
	IPAddress  *string `json:"ip_address"`
	Port       *int    `json:"port"`
	Username   *string `json:"username"`
	Password   *string `json:"password"`
	StreamType *string `json:"stream_type"`
	RTSPPath   *string `json:"rtsp_path"`
}

// AuthorizedPlateRequest is the body of authorized-plate create/update calls.
type AuthorizedPlateRequest struct {
	PlateNumber *string  `json:"plate_number"`
	Description *string  `json:"description"`
	IsActive    *bool    `json:"is_active"`
	Sensitivity *float64 `json:"sensitivity"`
}
