package domain

import "time"

// Kind определяет тип контейнера контента.
type Kind string

const (
	KindPost    Kind = "post"
	KindComment Kind = "comment"
)

// Role - роль того, кто читает контент.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// DefaultAvatar назначается пользователю без собственного аватара.
const DefaultAvatar = "https://ui-avatars.com/api/?background=random"

// User представляет пользователя системы.
type User struct {
	ID         string    `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Username   string    `json:"username" gorm:"type:varchar(255);not null;uniqueIndex"`
	Email      string    `json:"email" gorm:"type:varchar(255);not null;uniqueIndex"`
	Role       Role      `json:"role" gorm:"type:varchar(16);not null;default:'user'"`
	Avatar     string    `json:"avatar" gorm:"type:text"`
	FullName   string    `json:"fullName" gorm:"type:varchar(255)"`
	Bio        string    `json:"bio" gorm:"type:text"`
	CreatedAt  time.Time `json:"createdAt" gorm:"not null;default:now()"`
	SavedPosts []*Post   `json:"-" gorm:"many2many:user_saved_posts"` // gorm only
}

// Post представляет пост в системе. Подпись и картинка опциональны, но хотя бы одно из них задано.
type Post struct {
	ID         string    `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	AuthorID   string    `json:"authorId" gorm:"type:varchar(255);not null;index"`
	Caption    string    `json:"caption" gorm:"type:text"`
	ImageURL   string    `json:"imageUrl" gorm:"type:text"`
	LikesCount int       `json:"likesCount" gorm:"not null;default:0"`
	Moderation Verdict   `json:"moderation" gorm:"embedded;embeddedPrefix:moderation_"`
	CreatedAt  time.Time `json:"createdAt" gorm:"not null;default:now();index"`
}

// Comment представляет комментарий к посту. Ссылка только в одну сторону: comment -> post.
type Comment struct {
	ID         string    `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	PostID     string    `json:"postId" gorm:"type:uuid;not null;index"`
	AuthorID   string    `json:"authorId" gorm:"type:varchar(255);not null"`
	Text       string    `json:"text" gorm:"type:varchar(2000);not null"`
	Moderation Verdict   `json:"moderation" gorm:"embedded;embeddedPrefix:moderation_"`
	CreatedAt  time.Time `json:"createdAt" gorm:"not null;default:now();index"`
}

// Viewer - явная личность вызывающего. Пустой UserID - анонимный читатель.
type Viewer struct {
	UserID string
	Role   Role
}

// IsAdmin сообщает, видит ли читатель помеченный контент целиком.
func (v Viewer) IsAdmin() bool {
	return v.Role == RoleAdmin
}
