package user

import "time"

type User struct {
	ID           int64      `gorm:"primaryKey"`
	Username     string     `gorm:"column:username;size:150;uniqueIndex:users_username_key;not null"`
	Email        string     `gorm:"column:email;size:254;not null"`
	PasswordHash string     `gorm:"column:password_hash;not null"`
	FirstName    string     `gorm:"column:first_name;size:150;not null"`
	LastName     string     `gorm:"column:last_name;size:150;not null"`
	IsActive     bool       `gorm:"column:is_active;not null"`
	LastLogin    *time.Time `gorm:"column:last_login"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	UpdatedAt    time.Time  `gorm:"column:updated_at"`
}

func (User) TableName() string { return "users" }

type Permission struct {
	ID          int64     `gorm:"primaryKey"`
	Name        string    `gorm:"column:name;uniqueIndex;not null"`
	Description string    `gorm:"column:description"`
	CreatedAt   time.Time `gorm:"column:created_at"`
}

func (Permission) TableName() string { return "permissions" }

type UserPermission struct {
	ID           int64     `gorm:"primaryKey"`
	UserID       int64     `gorm:"column:user_id;not null;uniqueIndex:user_permissions_user_permission_key"`
	PermissionID int64     `gorm:"column:permission_id;not null;uniqueIndex:user_permissions_user_permission_key"`
	GrantedBy    *int64    `gorm:"column:granted_by"`
	CreatedAt    time.Time `gorm:"column:created_at"`
}

func (UserPermission) TableName() string { return "user_permissions" }
