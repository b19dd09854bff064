package service

import (
	"context"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/boddenberg/supplier-portal-bfa/internal/catalog"
	"github.com/boddenberg/supplier-portal-bfa/internal/domain"
	"github.com/boddenberg/supplier-portal-bfa/internal/infra/media"
	"github.com/boddenberg/supplier-portal-bfa/internal/validation"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const msgDocumentImage = "Please upload a document image or PDF"

// DraftService edits the application draft and the product selection of a session.
// Every method works on a copy and hands out copies; nothing returned aliases
// the workspace.
type DraftService struct {
	workspaces *Workspaces
	catalog    *catalog.Catalog
	validate   *validator.Validate
	logger     *zap.Logger
	now        func() time.Time
}

// NewDraftService creates the draft service.
func NewDraftService(workspaces *Workspaces, cat *catalog.Catalog, validate *validator.Validate, logger *zap.Logger) *DraftService {
	return &DraftService{
		workspaces: workspaces,
		catalog:    cat,
		validate:   validate,
		logger:     logger,
		now:        time.Now,
	}
}

// Catalog returns the product catalog.
func (s *DraftService) Catalog() *catalog.Catalog {
	return s.catalog
}

// Snapshot returns a copy of the current draft.
func (s *DraftService) Snapshot(ctx context.Context) (domain.ApplicationDraft, error) {
	var out domain.ApplicationDraft
	err := s.workspaces.with(ctx, func(ws *Workspace) error {
		out = ws.draft.Clone()
		return nil
	})
	return out, err
}

// Update merges the present top-level keys of patch into the draft.
func (s *DraftService) Update(ctx context.Context, patch domain.DraftPatch) (domain.ApplicationDraft, error) {
	return s.edit(ctx, func(d *domain.ApplicationDraft) error {
		d.Apply(patch)
		d.Address.Country = domain.DefaultCountry
		assignEntryIDs(d)
		return nil
	})
}

// assignEntryIDs gives list entries replaced wholesale by a patch the ids
// that removal by id relies on.
func assignEntryIDs(d *domain.ApplicationDraft) {
	for i := range d.Products {
		if d.Products[i].EntryID == "" {
			d.Products[i].EntryID = uuid.NewString()
		}
	}
	for i := range d.Warehouses {
		if d.Warehouses[i].EntryID == "" {
			d.Warehouses[i].EntryID = uuid.NewString()
		}
	}
	for i := range d.Documents {
		if d.Documents[i].EntryID == "" {
			d.Documents[i].EntryID = uuid.NewString()
		}
	}
}

// UpdateAddress edits single address fields, keeping the others.
func (s *DraftService) UpdateAddress(ctx context.Context, patch domain.AddressPatch) (domain.ApplicationDraft, error) {
	return s.edit(ctx, func(d *domain.ApplicationDraft) error {
		d.Address = d.Address.Merge(patch)
		return nil
	})
}

// Reset discards the draft and the selection.
func (s *DraftService) Reset(ctx context.Context) (domain.ApplicationDraft, error) {
	var out domain.ApplicationDraft
	err := s.workspaces.with(ctx, func(ws *Workspace) error {
		ws.draft = domain.NewDraft()
		ws.selection = catalog.NewSelection()
		out = ws.draft.Clone()
		return nil
	})
	return out, err
}

// ============================================================
// Products
// ============================================================

// AddProducts appends a batch of products. Either all of them are added or
// none: the first incomplete product rejects the whole batch.
func (s *DraftService) AddProducts(ctx context.Context, batch []domain.ProductInput) (domain.ApplicationDraft, error) {
	products, err := productsFromInputs(batch)
	if err != nil {
		return domain.ApplicationDraft{}, err
	}
	return s.edit(ctx, func(d *domain.ApplicationDraft) error {
		d.Products = append(d.Products, products...)
		return nil
	})
}

// RemoveProduct drops the product at index, keeping the order of the rest.
func (s *DraftService) RemoveProduct(ctx context.Context, index int) (domain.ApplicationDraft, error) {
	return s.edit(ctx, func(d *domain.ApplicationDraft) (err error) {
		d.Products, err = removeAt(d.Products, index, "product")
		return err
	})
}

// RemoveProductByID drops the product with the given entry id.
func (s *DraftService) RemoveProductByID(ctx context.Context, entryID string) (domain.ApplicationDraft, error) {
	return s.edit(ctx, func(d *domain.ApplicationDraft) (err error) {
		d.Products, err = removeByID(d.Products, entryID, "product", func(p domain.Product) string { return p.EntryID })
		return err
	})
}

// ============================================================
// Warehouses & documents
// ============================================================

// AddWarehouse appends a warehouse; capacity that does not parse is stored as 0.
func (s *DraftService) AddWarehouse(ctx context.Context, in domain.WarehouseInput) (domain.ApplicationDraft, error) {
	if err := validation.Struct(s.validate, in); err != nil {
		return domain.ApplicationDraft{}, err
	}
	w := domain.Warehouse{
		EntryID:          uuid.NewString(),
		WarehouseName:    strings.TrimSpace(in.WarehouseName),
		Location:         in.Location,
		HandlingCapacity: domain.ParseNumber(in.HandlingCapacity),
	}
	return s.edit(ctx, func(d *domain.ApplicationDraft) error {
		d.Warehouses = append(d.Warehouses, w)
		return nil
	})
}

// RemoveWarehouse drops the warehouse at index.
func (s *DraftService) RemoveWarehouse(ctx context.Context, index int) (domain.ApplicationDraft, error) {
	return s.edit(ctx, func(d *domain.ApplicationDraft) (err error) {
		d.Warehouses, err = removeAt(d.Warehouses, index, "warehouse")
		return err
	})
}

// RemoveWarehouseByID drops the warehouse with the given entry id.
func (s *DraftService) RemoveWarehouseByID(ctx context.Context, entryID string) (domain.ApplicationDraft, error) {
	return s.edit(ctx, func(d *domain.ApplicationDraft) (err error) {
		d.Warehouses, err = removeByID(d.Warehouses, entryID, "warehouse", func(w domain.Warehouse) string { return w.EntryID })
		return err
	})
}

// AddDocument appends a verification document. The image must be a data URI
// whose content is an image or a PDF.
func (s *DraftService) AddDocument(ctx context.Context, in domain.DocumentInput) (domain.ApplicationDraft, error) {
	if err := validation.Struct(s.validate, in); err != nil {
		return domain.ApplicationDraft{}, err
	}
	detected, err := media.CheckDocument(in.DocumentImage)
	if err != nil {
		s.logger.Debug("document rejected", zap.Error(err))
		return domain.ApplicationDraft{}, &domain.ErrValidation{Field: "documentImage", Message: msgDocumentImage}
	}

	doc := domain.Document{
		EntryID:       uuid.NewString(),
		DocumentID:    strings.TrimSpace(in.DocumentID),
		DocumentImage: in.DocumentImage,
		Description:   in.Description,
		UploadedAt:    s.now().UTC().Truncate(time.Second),
	}
	s.logger.Debug("document added", zap.String("type", detected))
	return s.edit(ctx, func(d *domain.ApplicationDraft) error {
		d.Documents = append(d.Documents, doc)
		return nil
	})
}

// RemoveDocument drops the document at index.
func (s *DraftService) RemoveDocument(ctx context.Context, index int) (domain.ApplicationDraft, error) {
	return s.edit(ctx, func(d *domain.ApplicationDraft) (err error) {
		d.Documents, err = removeAt(d.Documents, index, "document")
		return err
	})
}

// RemoveDocumentByID drops the document with the given entry id.
func (s *DraftService) RemoveDocumentByID(ctx context.Context, entryID string) (domain.ApplicationDraft, error) {
	return s.edit(ctx, func(d *domain.ApplicationDraft) (err error) {
		d.Documents, err = removeByID(d.Documents, entryID, "document", func(doc domain.Document) string { return doc.EntryID })
		return err
	})
}

// ToggleOption flips membership of value in one of the multi-choice business fields.
func (s *DraftService) ToggleOption(ctx context.Context, field, value string) (domain.ApplicationDraft, error) {
	return s.edit(ctx, func(d *domain.ApplicationDraft) error {
		_, err := d.ToggleOption(field, value)
		return err
	})
}

// ============================================================
// Product selection
// ============================================================

// Selection returns a copy of the in-progress product selection.
func (s *DraftService) Selection(ctx context.Context) (catalog.Selection, error) {
	return s.selection(ctx, func(*catalog.Selection) error { return nil })
}

// ChooseCategory switches the selection to another category.
func (s *DraftService) ChooseCategory(ctx context.Context, name string) (catalog.Selection, error) {
	return s.selection(ctx, func(sel *catalog.Selection) error {
		return sel.ChooseCategory(s.catalog, name)
	})
}

// ChooseSubcategory switches the selection to another subcategory.
func (s *DraftService) ChooseSubcategory(ctx context.Context, name string) (catalog.Selection, error) {
	return s.selection(ctx, func(sel *catalog.Selection) error {
		return sel.ChooseSubcategory(s.catalog, name)
	})
}

// ToggleProduct picks or un-picks a product of the current subcategory.
func (s *DraftService) ToggleProduct(ctx context.Context, productID string) (catalog.Selection, error) {
	return s.selection(ctx, func(sel *catalog.Selection) error {
		_, err := sel.Toggle(s.catalog, productID)
		return err
	})
}

// SetProductDetails edits the details of a picked product.
func (s *DraftService) SetProductDetails(ctx context.Context, productID string, patch catalog.DetailsPatch) (catalog.Selection, error) {
	return s.selection(ctx, func(sel *catalog.Selection) error {
		return sel.SetDetails(s.catalog, productID, patch)
	})
}

// CommitSelection adds the picked products to the draft and clears the picks.
// Nothing changes when any pick is incomplete.
func (s *DraftService) CommitSelection(ctx context.Context) (domain.ApplicationDraft, error) {
	var out domain.ApplicationDraft
	err := s.workspaces.with(ctx, func(ws *Workspace) error {
		pending := ws.selection.Pending()
		if len(pending) == 0 {
			return &domain.ErrValidation{Field: "products", Message: domain.NoticeSelectProducts}
		}
		products, err := productsFromInputs(pending)
		if err != nil {
			return err
		}
		ws.draft.Products = append(slices.Clone(ws.draft.Products), products...)
		ws.selection.ClearPicks()
		out = ws.draft.Clone()
		return nil
	})
	return out, err
}

// ============================================================
// Helpers
// ============================================================

// edit applies fn to a copy of the draft and stores it only when fn succeeds.
func (s *DraftService) edit(ctx context.Context, fn func(d *domain.ApplicationDraft) error) (domain.ApplicationDraft, error) {
	var out domain.ApplicationDraft
	err := s.workspaces.with(ctx, func(ws *Workspace) error {
		next := ws.draft.Clone()
		if err := fn(&next); err != nil {
			return err
		}
		ws.draft = next
		out = next.Clone()
		return nil
	})
	return out, err
}

func (s *DraftService) selection(ctx context.Context, fn func(sel *catalog.Selection) error) (catalog.Selection, error) {
	var out catalog.Selection
	err := s.workspaces.with(ctx, func(ws *Workspace) error {
		next := ws.selection.Clone()
		if err := fn(&next); err != nil {
			return err
		}
		ws.selection = next
		out = next.Clone()
		return nil
	})
	return out, err
}

// productsFromInputs checks every input for presence before coercing any of them.
func productsFromInputs(batch []domain.ProductInput) ([]domain.Product, error) {
	for _, in := range batch {
		if !in.Complete() {
			return nil, incompleteProduct(in.Name)
		}
	}
	out := make([]domain.Product, 0, len(batch))
	for _, in := range batch {
		p := in.Product()
		p.EntryID = uuid.NewString()
		out = append(out, p)
	}
	return out, nil
}

func incompleteProduct(name string) error {
	msg := "Please fill all required fields for the product"
	if name != "" {
		msg = "Please fill all required fields for " + name
	}
	return &domain.ErrValidation{Field: "products", Message: msg}
}

func removeAt[T any](list []T, index int, resource string) ([]T, error) {
	if index < 0 || index >= len(list) {
		return list, &domain.ErrNotFound{Resource: resource, ID: strconv.Itoa(index)}
	}
	out := make([]T, 0, len(list)-1)
	out = append(out, list[:index]...)
	return append(out, list[index+1:]...), nil
}

func removeByID[T any](list []T, id, resource string, idOf func(T) string) ([]T, error) {
	for i, item := range list {
		if id != "" && idOf(item) == id {
			return removeAt(list, i, resource)
		}
	}
	return list, &domain.ErrNotFound{Resource: resource, ID: id}
}
