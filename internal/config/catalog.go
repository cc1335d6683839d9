package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"govhub/internal/domain"
)

// CatalogFile is the root of the catalog definition YAML.
type CatalogFile struct {
	Catalogs []CatalogSpec `yaml:"catalogs"`
}

// CatalogSpec declares one catalog with its resource types and approval
// flows.
type CatalogSpec struct {
	ID            string             `yaml:"id"`
	Name          string             `yaml:"name"`
	Description   string             `yaml:"description"`
	ResourceTypes []ResourceTypeSpec `yaml:"resourceTypes"`
	ApprovalFlows []ApprovalFlowSpec `yaml:"approvalFlows"`
}

// ResourceTypeSpec declares one resource type's capabilities. Handler
// names a key in the resource-type handler registry; it defaults to the
// type id.
type ResourceTypeSpec struct {
	ID                   string  `yaml:"id"`
	Handler              string  `yaml:"handler"`
	Creatable            bool    `yaml:"creatable"`
	Updatable            bool    `yaml:"updatable"`
	Deletable            bool    `yaml:"deletable"`
	OwnerManagement      bool    `yaml:"ownerManagement"`
	ApproverManagement   bool    `yaml:"approverManagement"`
	AnyoneCanCreate      bool    `yaml:"anyoneCanCreate"`
	ParentResourceTypeID *string `yaml:"parentResourceTypeId"`
	UpdateApprover       *string `yaml:"updateApprover"`
}

// ApprovalFlowSpec declares one approval flow.
type ApprovalFlowSpec struct {
	ID               string              `yaml:"id"`
	Name             string              `yaml:"name"`
	ApproverPolicy   string              `yaml:"approverPolicy"`
	ApproverGroupID  *string             `yaml:"approverGroupId"`
	InputResources   []InputResourceSpec `yaml:"inputResources"`
	ApproverResource string              `yaml:"approverResource"`
	AutoRevoke       *AutoRevokeSpec     `yaml:"autoRevoke"`
	EnableRevoke     bool                `yaml:"enableRevoke"`
}

// InputResourceSpec declares a named resource input an approval flow
// expects with each request.
type InputResourceSpec struct {
	Name           string `yaml:"name"`
	ResourceTypeID string `yaml:"resourceTypeId"`
}

// AutoRevokeSpec declares a flow's auto-revocation settings. MaxDuration
// uses Go duration syntax ("720h").
type AutoRevokeSpec struct {
	Enabled     bool   `yaml:"enabled"`
	Required    bool   `yaml:"required"`
	MaxDuration string `yaml:"maxDuration"`
}

// LoadCatalogFile reads and parses the catalog definition YAML.
func LoadCatalogFile(path string) (*CatalogFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog config: %w", err)
	}
	var file CatalogFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse catalog config: %w", err)
	}
	for i := range file.Catalogs {
		if file.Catalogs[i].ID == "" {
			return nil, fmt.Errorf("catalog config: catalog %d has no id", i)
		}
	}
	return &file, nil
}

// ResolveResourceTypes maps a catalog's resource type specs to domain
// configs, binding handlers from the registry.
func (c *CatalogSpec) ResolveResourceTypes(handlers domain.ResourceTypeHandlerRegistry) ([]domain.ResourceTypeConfig, error) {
	var types []domain.ResourceTypeConfig
	for _, spec := range c.ResourceTypes {
		if spec.ID == "" {
			return nil, fmt.Errorf("catalog %s: resource type with no id", c.ID)
		}
		if spec.UpdateApprover != nil {
			switch *spec.UpdateApprover {
			case domain.UpdateApproverThis, domain.UpdateApproverParentResource:
			default:
				return nil, fmt.Errorf("catalog %s: resource type %s: invalid updateApprover %q", c.ID, spec.ID, *spec.UpdateApprover)
			}
		}
		handlerKey := spec.Handler
		if handlerKey == "" {
			handlerKey = spec.ID
		}
		handler, ok := handlers.Handler(handlerKey)
		if !ok {
			return nil, fmt.Errorf("catalog %s: resource type %s: no handler registered for %q", c.ID, spec.ID, handlerKey)
		}
		types = append(types, domain.ResourceTypeConfig{
			ID:                   spec.ID,
			IsCreatable:          spec.Creatable,
			IsUpdatable:          spec.Updatable,
			IsDeletable:          spec.Deletable,
			OwnerManagement:      spec.OwnerManagement,
			ApproverManagement:   spec.ApproverManagement,
			AnyoneCanCreate:      spec.AnyoneCanCreate,
			ParentResourceTypeID: spec.ParentResourceTypeID,
			UpdateApprover:       spec.UpdateApprover,
			Handler:              handler,
		})
	}
	return types, nil
}

// ResolveApprovalFlows maps a catalog's approval flow specs to domain
// configs, binding flow handlers by flow id.
func (c *CatalogSpec) ResolveApprovalFlows(flowHandlers map[string]domain.ApprovalFlowHandler) ([]domain.ApprovalFlowConfig, error) {
	var flows []domain.ApprovalFlowConfig
	for _, spec := range c.ApprovalFlows {
		if spec.ID == "" {
			return nil, fmt.Errorf("catalog %s: approval flow with no id", c.ID)
		}
		handler, ok := flowHandlers[spec.ID]
		if !ok {
			return nil, fmt.Errorf("catalog %s: approval flow %s: no flow handler registered", c.ID, spec.ID)
		}

		flow := domain.ApprovalFlowConfig{
			ID:              spec.ID,
			Name:            spec.Name,
			ApproverPolicy:  spec.ApproverPolicy,
			ApproverGroupID: spec.ApproverGroupID,
			EnableRevoke:    spec.EnableRevoke,
			Handler:         handler,
		}
		for _, in := range spec.InputResources {
			flow.InputResources = append(flow.InputResources, domain.ApprovalFlowInputResource{
				Name:           in.Name,
				ResourceTypeID: in.ResourceTypeID,
			})
		}
		if spec.ApproverResource != "" {
			found := false
			for i := range flow.InputResources {
				if flow.InputResources[i].Name == spec.ApproverResource {
					in := flow.InputResources[i]
					flow.ApproverResource = &in
					found = true
					break
				}
			}
			if !found {
				return nil, fmt.Errorf("catalog %s: approval flow %s: approverResource %q is not a declared input", c.ID, spec.ID, spec.ApproverResource)
			}
		}
		if spec.AutoRevoke != nil {
			auto := &domain.AutoRevokeConfig{
				Enabled:  spec.AutoRevoke.Enabled,
				Required: spec.AutoRevoke.Required,
			}
			if spec.AutoRevoke.MaxDuration != "" {
				d, err := time.ParseDuration(spec.AutoRevoke.MaxDuration)
				if err != nil {
					return nil, fmt.Errorf("catalog %s: approval flow %s: invalid maxDuration: %v", c.ID, spec.ID, err)
				}
				auto.MaxDuration = &d
			}
			flow.AutoRevoke = auto
		}
		flows = append(flows, flow)
	}
	return flows, nil
}
