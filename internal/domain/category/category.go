package category

type Category struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Slug        string   `json:"slug"`
	Images      []string `json:"images"`
}

type CreateRequest struct {
	Name        string `form:"name" binding:"required,min=2,max=50"`
	Description string `form:"description" binding:"required,min=10,max=500"`
	Slug        string `form:"slug" binding:"omitempty,max=80"`
}

// UpdateRequest is a partial update, absent fields stay nil.
type UpdateRequest struct {
	Name        *string `form:"name" binding:"omitempty,min=2,max=50"`
	Description *string `form:"description" binding:"omitempty,min=10,max=500"`
	Slug        *string `form:"slug" binding:"omitempty,max=80"`
}

// Patch holds the fields to overwrite. AddImage is appended to Images,
// never replacing what is already there.
type Patch struct {
	Name        *string
	Description *string
	Slug        *string
	AddImage    *string
}

func (r UpdateRequest) Patch() Patch {
	return Patch{
		Name:        r.Name,
		Description: r.Description,
		Slug:        r.Slug,
	}
}

func (p Patch) IsEmpty() bool {
	return p.Name == nil && p.Description == nil && p.Slug == nil && p.AddImage == nil
}

// Renames reports whether applying p to c changes its name.
func (p Patch) Renames(c Category) bool {
	return p.Name != nil && *p.Name != c.Name
}

func (p Patch) Apply(c Category) Category {
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.Description != nil {
		c.Description = *p.Description
	}
	if p.Slug != nil {
		c.Slug = *p.Slug
	}
	if p.AddImage != nil {
		images := make([]string, 0, len(c.Images)+1)
		images = append(images, c.Images...)
		c.Images = append(images, *p.AddImage)
	}
	return c
}

// List is the body of the category listing.
type List struct {
	Items []Category `json:"items"`
	Total int        `json:"total"`
}

func NewList(items []Category) List {
	if items == nil {
		items = []Category{}
	}
	return List{Items: items, Total: len(items)}
}
