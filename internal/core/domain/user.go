package domain

import "time"

type UserID string

type UserRole string

const (
	RoleViewer   UserRole = "viewer"
	RoleStreamer UserRole = "streamer"
	RoleAdmin    UserRole = "admin"
)

type User struct {
	ID           UserID
	Username     string
	Email        string
	Nickname     string
	PasswordHash string
	Role         UserRole
	StreamKey    string
	ProfileImage string
	CreatedAt    time.Time
	LastLogin    time.Time
}

// CanPublish reports whether the user's role allows starting a broadcast.
func (u *User) CanPublish() bool {
	return u.Role == RoleStreamer || u.Role == RoleAdmin
}

// Profile returns the public display metadata for the user.
func (u *User) Profile() StreamerProfile {
	return StreamerProfile{
		Username:     u.Username,
		Nickname:     u.Nickname,
		ProfileImage: u.ProfileImage,
	}
}
