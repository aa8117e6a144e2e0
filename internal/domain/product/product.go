package product

import (
	"encoding/json"
	"errors"
	"strings"
	"time"
)

type Product struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	Category    string    `json:"category"`
	Available   bool      `json:"available"`
	Discount    float64   `json:"discount"`
	Tags        []string  `json:"tags"`
	Images      []string  `json:"images"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

var ErrInvalidTags = errors.New("tags must be a JSON array of strings")

// CreateRequest is the multipart form for a new product. Tags arrive as a
// JSON array string.
type CreateRequest struct {
	Name        string  `form:"name" binding:"required,min=1,max=120"`
	Description string  `form:"description" binding:"required,max=2000"`
	Price       float64 `form:"price" binding:"required,gt=0"`
	Category    string  `form:"category" binding:"required"`
	Tags        string  `form:"tags,default=[]"`
	Discount    float64 `form:"discount" binding:"gte=0,lte=100"`
}

// UpdateRequest is a partial update, absent fields stay nil.
type UpdateRequest struct {
	Name        *string  `form:"name" binding:"omitempty,min=1,max=120"`
	Description *string  `form:"description" binding:"omitempty,max=2000"`
	Price       *float64 `form:"price" binding:"omitempty,gt=0"`
	Category    *string  `form:"category" binding:"omitempty,min=1"`
	Available   *bool    `form:"available"`
	Discount    *float64 `form:"discount" binding:"omitempty,gte=0,lte=100"`
	Tags        *string  `form:"tags"`
}

// Patch holds the fields to overwrite. AddImage is appended to Images.
type Patch struct {
	Name        *string
	Description *string
	Price       *float64
	Category    *string
	Available   *bool
	Discount    *float64
	Tags        *[]string
	AddImage    *string
}

func (r UpdateRequest) Patch() (Patch, error) {
	p := Patch{
		Name:        r.Name,
		Description: r.Description,
		Price:       r.Price,
		Category:    r.Category,
		Available:   r.Available,
		Discount:    r.Discount,
	}

	if r.Tags != nil {
		tags, err := ParseTags(*r.Tags)
		if err != nil {
			return Patch{}, err
		}
		p.Tags = &tags
	}

	return p, nil
}

func (p Patch) IsEmpty() bool {
	return p.Name == nil &&
		p.Description == nil &&
		p.Price == nil &&
		p.Category == nil &&
		p.Available == nil &&
		p.Discount == nil &&
		p.Tags == nil &&
		p.AddImage == nil
}

// Apply merges the present fields into pr and stamps UpdatedAt.
func (p Patch) Apply(pr Product, now time.Time) Product {
	if p.Name != nil {
		pr.Name = *p.Name
	}
	if p.Description != nil {
		pr.Description = *p.Description
	}
	if p.Price != nil {
		pr.Price = *p.Price
	}
	if p.Category != nil {
		pr.Category = *p.Category
	}
	if p.Available != nil {
		pr.Available = *p.Available
	}
	if p.Discount != nil {
		pr.Discount = *p.Discount
	}
	if p.Tags != nil {
		pr.Tags = append([]string(nil), (*p.Tags)...)
	}
	if p.AddImage != nil {
		images := make([]string, 0, len(pr.Images)+1)
		images = append(images, pr.Images...)
		pr.Images = append(images, *p.AddImage)
	}
	pr.UpdatedAt = now
	return pr
}

// ParseTags decodes a JSON array of strings. An empty value means no tags.
func ParseTags(raw string) ([]string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return []string{}, nil
	}

	var tags []string
	if err := json.Unmarshal([]byte(raw), &tags); err != nil {
		return nil, errors.Join(ErrInvalidTags, err)
	}

	// "null" decodes without error
	if tags == nil {
		return nil, ErrInvalidTags
	}

	return tags, nil
}

// ListQuery is the query string of the product listing.
type ListQuery struct {
	Page     int    `form:"page,default=1" binding:"min=1"`
	Limit    int    `form:"limit,default=10" binding:"min=1,max=50"`
	Category string `form:"category"`
}

// ListFilter is the store predicate for a page of products.
type ListFilter struct {
	AvailableOnly bool
	Category      *string
	Skip          int
	Limit         int
}

type Pagination struct {
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	TotalItems int  `json:"total_items"`
	TotalPages int  `json:"total_pages"`
	HasNext    bool `json:"has_next"`
	HasPrev    bool `json:"has_prev"`
}

type Page struct {
	Items      []Product  `json:"items"`
	Pagination Pagination `json:"pagination"`
}

// NewPagination derives page counts from a total. limit must be positive.
func NewPagination(page, limit, total int) Pagination {
	totalPages := (total + limit - 1) / limit

	return Pagination{
		Page:       page,
		Limit:      limit,
		TotalItems: total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
		HasPrev:    page > 1,
	}
}

// EmptyPagination is returned when the category filter matches nothing.
func EmptyPagination(page, limit int) Pagination {
	return Pagination{Page: page, Limit: limit}
}
