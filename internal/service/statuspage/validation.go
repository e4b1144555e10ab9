package statuspage

import (
	"fmt"
	"regexp"
	"strings"

	"statusboard/internal/config"
	models "statusboard/internal/domain/models/statuspage"
	spSvc "statusboard/internal/domain/services/statuspage"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

var subdomainPattern = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]*[a-z0-9])?$`)

func validateCreateRequest(req *spSvc.CreateStatusPageRequest) error {
	req.Name = strings.TrimSpace(req.Name)
	req.Subdomain = strings.ToLower(strings.TrimSpace(req.Subdomain))

	if err := validation.ValidateStruct(req,
		validation.Field(&req.Name,
			validation.Required,
			validation.Length(1, config.MaxStatusPageNameLength),
		),
		validation.Field(&req.Subdomain,
			validation.Required,
			validation.Length(1, config.MaxSubdomainLength),
			validation.Match(subdomainPattern).Error("must contain only lowercase letters, digits and dashes"),
		),
	); err != nil {
		return err
	}

	for i := range req.Items {
		item := &req.Items[i]
		item.Name = strings.TrimSpace(item.Name)
		err := validation.ValidateStruct(item,
			validation.Field(&item.Type,
				validation.Required,
				validation.In(models.ItemTypeComponent, models.ItemTypeGroup),
			),
			validation.Field(&item.Name,
				validation.Required,
				validation.Length(1, config.MaxComponentNameLength),
			),
			validation.Field(&item.Components,
				validation.When(item.Type == models.ItemTypeComponent, validation.Empty.Error("components cannot contain other components")),
				validation.Each(validation.Required, validation.Length(1, config.MaxComponentNameLength)),
			),
		)
		if err != nil {
			return fmt.Errorf("items[%d]: %w", i, err)
		}
	}
	return nil
}

func validateDragRequest(req *spSvc.DragRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.ActiveID, validation.Required),
		validation.Field(&req.OverID, validation.Required),
		validation.Field(&req.IndentationWidth, validation.Min(0)),
	)
}

// validateServerSideItems checks the payload shape; nesting rules are checked on the decoded tree
func validateServerSideItems(items []models.ServerSideItem, path string) error {
	for i := range items {
		item := &items[i]
		at := fmt.Sprintf("%s[%d]", path, i)
		err := validation.ValidateStruct(item,
			validation.Field(&item.ID, validation.Required),
			validation.Field(&item.Rank, validation.Min(0)),
			validation.Field(&item.StatusPageComponent,
				validation.When(item.StatusPageComponentGroup == nil, validation.Required.Error("either statusPageComponent or statusPageComponentGroup is required")).
					Else(validation.Nil.Error("cannot be set together with statusPageComponentGroup")),
			),
			validation.Field(&item.StatusPageItems,
				validation.When(item.StatusPageComponent != nil, validation.Empty.Error("components cannot contain items")),
			),
		)
		if err != nil {
			return fmt.Errorf("%s: %w", at, err)
		}
		if err := validateRef(item.StatusPageComponent); err != nil {
			return fmt.Errorf("%s.statusPageComponent: %w", at, err)
		}
		if err := validateRef(item.StatusPageComponentGroup); err != nil {
			return fmt.Errorf("%s.statusPageComponentGroup: %w", at, err)
		}
		if err := validateServerSideItems(item.StatusPageItems, at+".statusPageItems"); err != nil {
			return err
		}
	}
	return nil
}

func validateRef(ref *models.Ref) error {
	if ref == nil {
		return nil
	}
	return validation.ValidateStruct(ref,
		validation.Field(&ref.ID, validation.Required),
	)
}
