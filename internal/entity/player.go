package entity

// Player is the display identity bound to a symbol. AvatarType is "emoji" or "image".
type Player struct {
	Username   string `json:"username"`
	Avatar     string `json:"avatar,omitempty"`
	AvatarType string `json:"avatarType,omitempty"`
	AvatarData string `json:"avatarData,omitempty"`
	SocketID   string `json:"socketId"`
}
