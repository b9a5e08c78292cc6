package dataverse

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// VersionType selects the version bump when publishing a dataset.
type VersionType string

const (
	MinorVersion VersionType = "minor"
	MajorVersion VersionType = "major"
)

// CreateDataset creates a draft dataset in a dataverse.
func (c *Client) CreateDataset(ctx context.Context, dataverse string, spec NewDataset) (*CreatedDataset, error) {
	if err := spec.validate(); err != nil {
		return nil, err
	}
	var created CreatedDataset
	if err := c.call(ctx, http.MethodPost, dataversePath(dataverse, "/datasets"), nil, spec.request(c.affiliation), &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// GetDataset returns a dataset by database id or persistent id.
func (c *Client) GetDataset(ctx context.Context, id string) (*Dataset, error) {
	path, query := objectPath("datasets", id, "")
	var ds Dataset
	if err := c.call(ctx, http.MethodGet, path, query, nil, &ds); err != nil {
		return nil, err
	}
	return &ds, nil
}

// PublishDataset releases the draft version of a dataset.
func (c *Client) PublishDataset(ctx context.Context, id string, typ VersionType) error {
	if typ != MinorVersion && typ != MajorVersion {
		return fmt.Errorf("invalid version type %q (must be minor or major)", typ)
	}
	path, query := objectPath("datasets", id, "/actions/:publish")
	if query == nil {
		query = url.Values{}
	}
	query.Set("type", string(typ))
	return c.call(ctx, http.MethodPost, path, query, nil, nil)
}

// DeleteDataset deletes a draft dataset. Published datasets are refused
// with ErrNotAllowed.
func (c *Client) DeleteDataset(ctx context.Context, id string) error {
	path, query := objectPath("datasets", id, "")
	return c.call(ctx, http.MethodDelete, path, query, nil, nil)
}

// DatasetVersions lists all versions of a dataset.
func (c *Client) DatasetVersions(ctx context.Context, id string) ([]DatasetVersion, error) {
	path, query := objectPath("datasets", id, "/versions")
	var versions []DatasetVersion
	if err := c.call(ctx, http.MethodGet, path, query, nil, &versions); err != nil {
		return nil, err
	}
	return versions, nil
}

// DatasetFiles lists the files of one version of a dataset. An empty
// version means ":latest".
func (c *Client) DatasetFiles(ctx context.Context, id, version string) ([]FileEntry, error) {
	if version == "" {
		version = ":latest"
	}
	path, query := objectPath("datasets", id, "/versions/"+url.PathEscape(version)+"/files")
	var files []FileEntry
	if err := c.call(ctx, http.MethodGet, path, query, nil, &files); err != nil {
		return nil, err
	}
	return files, nil
}
