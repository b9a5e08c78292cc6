package dataverse

import (
	"context"
	"net/http"
	"net/url"
)

// DefaultDataverseType is the type of dataverses created without one.
const DefaultDataverseType = "DEPARTMENT"

func dataversePath(id string, suffix string) string {
	return "/dataverses/" + url.PathEscape(id) + suffix
}

// ServerInfo returns the server host name.
func (c *Client) ServerInfo(ctx context.Context) (*ServerInfo, error) {
	var info ServerInfo
	if err := c.call(ctx, http.MethodGet, "/info/server", nil, nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// Version returns the server software version.
func (c *Client) Version(ctx context.Context) (*VersionInfo, error) {
	var v VersionInfo
	if err := c.call(ctx, http.MethodGet, "/info/version", nil, nil, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// GetDataverse returns a dataverse by alias or database id.
func (c *Client) GetDataverse(ctx context.Context, id string) (*Dataverse, error) {
	var dv Dataverse
	if err := c.call(ctx, http.MethodGet, dataversePath(id, ""), nil, nil, &dv); err != nil {
		return nil, err
	}
	return &dv, nil
}

// CreateDataverse creates a dataverse inside parent. Name, alias and at
// least one contact are required.
func (c *Client) CreateDataverse(ctx context.Context, parent string, spec NewDataverse) (*Dataverse, error) {
	dv := Dataverse{
		Name:          spec.Name,
		Alias:         spec.Alias,
		Contacts:      contactAddresses(spec.Contacts, c.contactDomain),
		Affiliation:   c.affiliation,
		Description:   spec.Description,
		DataverseType: spec.Type,
	}
	switch {
	case dv.Name == "":
		return nil, missing("name")
	case dv.Alias == "":
		return nil, missing("alias")
	case len(dv.Contacts) == 0:
		return nil, missing("dataverseContacts")
	}
	if dv.DataverseType == "" {
		dv.DataverseType = DefaultDataverseType
	}

	var created Dataverse
	if err := c.call(ctx, http.MethodPost, dataversePath(parent, ""), nil, dv, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// PublishDataverse releases a dataverse.
func (c *Client) PublishDataverse(ctx context.Context, id string) (*Dataverse, error) {
	var dv Dataverse
	if err := c.call(ctx, http.MethodPost, dataversePath(id, "/actions/:publish"), nil, nil, &dv); err != nil {
		return nil, err
	}
	return &dv, nil
}

// DataverseContents lists the child dataverses and datasets of a
// dataverse.
func (c *Client) DataverseContents(ctx context.Context, id string) ([]ContentItem, error) {
	var items []ContentItem
	if err := c.call(ctx, http.MethodGet, dataversePath(id, "/contents"), nil, nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// DeleteDataverse deletes an empty dataverse. A dataverse that still has
// content is refused with ErrForbidden.
func (c *Client) DeleteDataverse(ctx context.Context, id string) error {
	return c.call(ctx, http.MethodDelete, dataversePath(id, ""), nil, nil, nil)
}

// DataverseGroups lists the explicit groups defined in a dataverse.
func (c *Client) DataverseGroups(ctx context.Context, id string) ([]Group, error) {
	var groups []Group
	if err := c.call(ctx, http.MethodGet, dataversePath(id, "/groups"), nil, nil, &groups); err != nil {
		return nil, err
	}
	return groups, nil
}

// AddDataverseGroup creates an explicit group in a dataverse.
func (c *Client) AddDataverseGroup(ctx context.Context, id string, group NewGroup) (*Group, error) {
	switch {
	case group.DisplayName == "":
		return nil, missing("displayName")
	case group.AliasInOwner == "":
		return nil, missing("aliasInOwner")
	}
	var created Group
	if err := c.call(ctx, http.MethodPost, dataversePath(id, "/groups"), nil, group, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// DataverseRoleAssignments lists the role assignments of a dataverse.
func (c *Client) DataverseRoleAssignments(ctx context.Context, id string) ([]RoleAssignment, error) {
	var assignments []RoleAssignment
	if err := c.call(ctx, http.MethodGet, dataversePath(id, "/assignments"), nil, nil, &assignments); err != nil {
		return nil, err
	}
	return assignments, nil
}

// AssignDataverseRole grants role to assignee ("@user" or "&explicit/group")
// on a dataverse.
func (c *Client) AssignDataverseRole(ctx context.Context, id, assignee, role string) (*RoleAssignment, error) {
	switch {
	case assignee == "":
		return nil, missing("assignee")
	case role == "":
		return nil, missing("role")
	}
	body := map[string]string{"assignee": assignee, "role": role}
	var ra RoleAssignment
	if err := c.call(ctx, http.MethodPost, dataversePath(id, "/assignments"), nil, body, &ra); err != nil {
		return nil, err
	}
	return &ra, nil
}
