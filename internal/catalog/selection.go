package catalog

import (
	"slices"

	"github.com/boddenberg/supplier-portal-bfa/internal/domain"
)

// Details are the commercial terms typed for a picked product.
// Quantities stay raw strings until the batch is committed.
type Details struct {
	BrandName        string `json:"brandName"`
	CustomBrandName  string `json:"customBrandName"`
	SelectedSize     string `json:"selectedSize"`
	MinOrderQuantity string `json:"minOrderQuantity"`
	Price            string `json:"price"`
	Unit             string `json:"unit"`
	LeadTime         string `json:"leadTime"`
	Description      string `json:"description"`
}

// DetailsPatch edits some fields of a pick's details.
type DetailsPatch struct {
	BrandName        *string `json:"brandName,omitempty"`
	CustomBrandName  *string `json:"customBrandName,omitempty"`
	SelectedSize     *string `json:"selectedSize,omitempty"`
	MinOrderQuantity *string `json:"minOrderQuantity,omitempty"`
	Price            *string `json:"price,omitempty"`
	Unit             *string `json:"unit,omitempty"`
	LeadTime         *string `json:"leadTime,omitempty"`
	Description      *string `json:"description,omitempty"`
}

// Pick is a product toggled on in the current subcategory.
type Pick struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	Details   Details `json:"details"`
}

// Selection is the category -> subcategory -> products sub-flow.
// It is not safe for concurrent use; the owning workspace serializes access.
type Selection struct {
	Category    string `json:"category"`
	Subcategory string `json:"subcategory"`
	Picks       []Pick `json:"picks"`
}

// NewSelection returns an empty selection.
func NewSelection() Selection {
	return Selection{Picks: []Pick{}}
}

// ChooseCategory switches category, dropping the subcategory and all picks.
func (s *Selection) ChooseCategory(c *Catalog, name string) error {
	if !c.HasCategory(name) {
		return &domain.ErrValidation{Field: "category", Message: "Unknown category: " + name}
	}
	s.Category = name
	s.Subcategory = ""
	s.Picks = []Pick{}
	return nil
}

// ChooseSubcategory switches subcategory within the current category, dropping all picks.
func (s *Selection) ChooseSubcategory(c *Catalog, name string) error {
	if s.Category == "" {
		return &domain.ErrValidation{Field: "subcategory", Message: "Please select a category first"}
	}
	if _, ok := c.Subcategory(s.Category, name); !ok {
		return &domain.ErrValidation{Field: "subcategory", Message: "Unknown subcategory: " + name}
	}
	s.Subcategory = name
	s.Picks = []Pick{}
	return nil
}

// Toggle picks or un-picks a product of the current subcategory and reports
// whether it is picked afterwards. A new pick starts with the first brand,
// the first size and the default unit.
func (s *Selection) Toggle(c *Catalog, productID string) (bool, error) {
	if i := s.indexOf(productID); i >= 0 {
		s.Picks = slices.Delete(s.Picks, i, i+1)
		return false, nil
	}

	item, cat, sub, ok := c.Item(productID)
	if !ok {
		return false, &domain.ErrNotFound{Resource: "product", ID: productID}
	}
	if cat != s.Category || sub != s.Subcategory {
		return false, &domain.ErrValidation{Field: "productId", Message: "Product is not in the selected subcategory"}
	}

	s.Picks = append(s.Picks, Pick{
		ProductID: item.ID,
		Name:      item.Name,
		Details: Details{
			BrandName:    item.Brands[0],
			SelectedSize: item.Sizes[0],
			Unit:         DefaultUnit,
		},
	})
	return true, nil
}

// SetDetails edits a picked product. Brand, size and unit must be catalog choices.
func (s *Selection) SetDetails(c *Catalog, productID string, p DetailsPatch) error {
	i := s.indexOf(productID)
	if i < 0 {
		return &domain.ErrNotFound{Resource: "selected product", ID: productID}
	}
	item, _, _, _ := c.Item(productID)

	if p.BrandName != nil && !slices.Contains(item.Brands, *p.BrandName) {
		return &domain.ErrValidation{Field: "brandName", Message: "Unknown brand: " + *p.BrandName}
	}
	if p.SelectedSize != nil && !slices.Contains(item.Sizes, *p.SelectedSize) {
		return &domain.ErrValidation{Field: "selectedSize", Message: "Unknown size: " + *p.SelectedSize}
	}
	if p.Unit != nil && !c.HasUnit(*p.Unit) {
		return &domain.ErrValidation{Field: "unit", Message: "Unknown unit: " + *p.Unit}
	}

	d := &s.Picks[i].Details
	setIf(&d.BrandName, p.BrandName)
	setIf(&d.CustomBrandName, p.CustomBrandName)
	setIf(&d.SelectedSize, p.SelectedSize)
	setIf(&d.MinOrderQuantity, p.MinOrderQuantity)
	setIf(&d.Price, p.Price)
	setIf(&d.Unit, p.Unit)
	setIf(&d.LeadTime, p.LeadTime)
	setIf(&d.Description, p.Description)
	return nil
}

// Pending returns the picks as a batch ready to be added to the draft.
func (s *Selection) Pending() []domain.ProductInput {
	out := make([]domain.ProductInput, 0, len(s.Picks))
	for _, p := range s.Picks {
		out = append(out, domain.ProductInput{
			Category:         s.Category,
			Subcategory:      s.Subcategory,
			Name:             p.Name,
			BrandName:        p.Details.ResolvedBrand(),
			SelectedSize:     p.Details.SelectedSize,
			MinOrderQuantity: p.Details.MinOrderQuantity,
			Price:            p.Details.Price,
			Unit:             p.Details.Unit,
			LeadTime:         p.Details.LeadTime,
			Description:      p.Details.Description,
		})
	}
	return out
}

// ClearPicks drops the picks after they were committed; category and
// subcategory stay so the supplier can keep adding from the same shelf.
func (s *Selection) ClearPicks() {
	s.Picks = []Pick{}
}

// Clone returns a copy that shares nothing with s.
func (s Selection) Clone() Selection {
	s.Picks = append([]Pick{}, s.Picks...)
	return s
}

// ResolvedBrand is the brand that will be stored: the custom name when "Other" was chosen.
func (d Details) ResolvedBrand() string {
	if d.BrandName == BrandOther {
		return d.CustomBrandName
	}
	return d.BrandName
}

func (s *Selection) indexOf(productID string) int {
	return slices.IndexFunc(s.Picks, func(p Pick) bool { return p.ProductID == productID })
}

func setIf(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
