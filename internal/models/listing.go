package models

import "time"

// Listing is a textbook offered for sale.
type Listing struct {
	ID          uint   `gorm:"primaryKey"`
	Title       string `gorm:"not null;index"`
	Author      string
	ISBN        string
	CourseCode  string  `gorm:"index"`
	Price       float64 `gorm:"not null"`
	Condition   string
	Description string    `gorm:"type:text"`
	OwnerID     uint      `gorm:"not null;index"`
	Owner       User      `gorm:"foreignKey:OwnerID;constraint:OnDelete:CASCADE"`
	PostedAt    time.Time `gorm:"not null"`
}

// ListingRequest is the body accepted when creating or updating a listing.
type ListingRequest struct {
	Title       string  `json:"title" binding:"required,max=200"`
	Author      string  `json:"author" binding:"max=200"`
	ISBN        string  `json:"isbn" binding:"omitempty,isbn"`
	CourseCode  string  `json:"courseCode" binding:"required,coursecode"`
	Price       float64 `json:"price" binding:"gte=0"`
	Condition   string  `json:"condition" binding:"omitempty,oneof=new like-new good fair poor"`
	Description string  `json:"description" binding:"max=4000"`
}

// Apply copies the request fields onto l.
func (r ListingRequest) Apply(l *Listing) {
	l.Title = r.Title
	l.Author = r.Author
	l.ISBN = r.ISBN
	l.CourseCode = r.CourseCode
	l.Price = r.Price
	l.Condition = r.Condition
	l.Description = r.Description
}

// ListingFilter holds the optional search filters of GET /listings.
// Zero values match everything.
type ListingFilter struct {
	Query     string   `form:"q"`
	Course    string   `form:"course"`
	Condition string   `form:"condition"`
	MinPrice  *float64 `form:"minPrice" binding:"omitempty,gte=0"`
	MaxPrice  *float64 `form:"maxPrice" binding:"omitempty,gte=0"`
}

// ListingDTO is the public view of a Listing.
type ListingDTO struct {
	ID          uint      `json:"id"`
	Title       string    `json:"title"`
	Author      string    `json:"author"`
	ISBN        string    `json:"isbn"`
	CourseCode  string    `json:"courseCode"`
	Price       float64   `json:"price"`
	Condition   string    `json:"condition"`
	Description string    `json:"description"`
	OwnerID     uint      `json:"ownerId"`
	OwnerName   string    `json:"ownerName"`
	PostedAt    time.Time `json:"postedAt"`
}

func ToListingDTO(l Listing) ListingDTO {
	owner := l.Owner.Username
	if owner == "" {
		owner = UnknownSender
	}
	return ListingDTO{
		ID:          l.ID,
		Title:       l.Title,
		Author:      l.Author,
		ISBN:        l.ISBN,
		CourseCode:  l.CourseCode,
		Price:       l.Price,
		Condition:   l.Condition,
		Description: l.Description,
		OwnerID:     l.OwnerID,
		OwnerName:   owner,
		PostedAt:    l.PostedAt,
	}
}
