package dataverse

import (
	"strings"

	"github.com/ukaji3/dave-go/pkg/dataverse/terms"
)

// ServerInfo is the response of the server info endpoint.
type ServerInfo struct {
	Message string `json:"message"`
}

// VersionInfo is the software version of the server.
type VersionInfo struct {
	Version string `json:"version"`
	Build   string `json:"build,omitempty"`
}

// Contact is a dataverse contact address.
type Contact struct {
	DisplayOrder int    `json:"displayOrder,omitempty"`
	ContactEmail string `json:"contactEmail"`
}

// Dataverse is a collection of datasets and child dataverses.
type Dataverse struct {
	ID            int64     `json:"id,omitempty"`
	Alias         string    `json:"alias"`
	Name          string    `json:"name"`
	Affiliation   string    `json:"affiliation,omitempty"`
	Description   string    `json:"description,omitempty"`
	DataverseType string    `json:"dataverseType,omitempty"`
	Contacts      []Contact `json:"dataverseContacts,omitempty"`
	OwnerID       int64     `json:"ownerId,omitempty"`
	CreationDate  string    `json:"creationDate,omitempty"`
}

// NewDataverse describes a dataverse to create.
type NewDataverse struct {
	Name  string
	Alias string
	// Contacts is a comma-separated list of e-mail addresses or user
	// names; user names are completed with the configured contact domain.
	Contacts    string
	Description string
	// Type is the dataverse type; DEPARTMENT if empty.
	Type string
}

// ContentItem is one entry of a dataverse's contents: a child dataverse or
// a dataset.
type ContentItem struct {
	Type          string `json:"type"`
	ID            int64  `json:"id"`
	Title         string `json:"title,omitempty"`
	Protocol      string `json:"protocol,omitempty"`
	Authority     string `json:"authority,omitempty"`
	Identifier    string `json:"identifier,omitempty"`
	PersistentURL string `json:"persistentUrl,omitempty"`
	Publisher     string `json:"publisher,omitempty"`
}

// PersistentID returns the persistent id of a dataset item, or "" for a
// dataverse.
func (i ContentItem) PersistentID() string {
	if i.Type != "dataset" || i.Identifier == "" {
		return ""
	}
	return PersistentID(i.Protocol, i.Authority, i.Identifier)
}

// NewGroup describes an explicit group to create in a dataverse.
type NewGroup struct {
	DisplayName  string `json:"displayName"`
	AliasInOwner string `json:"aliasInOwner"`
	Description  string `json:"description,omitempty"`
}

// Group is an explicit group of users.
type Group struct {
	Identifier        string `json:"identifier"`
	GroupAliasInOwner string `json:"groupAliasInOwner,omitempty"`
	DisplayName       string `json:"displayName"`
	Description       string `json:"description,omitempty"`
	Owner             int64  `json:"owner,omitempty"`
}

// RoleAssignment grants a role on a dataverse to a user or group.
type RoleAssignment struct {
	ID                int64  `json:"id,omitempty"`
	Assignee          string `json:"assignee"`
	RoleID            int64  `json:"roleId,omitempty"`
	RoleAlias         string `json:"_roleAlias,omitempty"`
	DefinitionPointID int64  `json:"definitionPointId,omitempty"`
}

// Dataset is a versioned set of files with citation metadata.
type Dataset struct {
	ID              int64           `json:"id"`
	Identifier      string          `json:"identifier"`
	Protocol        string          `json:"protocol"`
	Authority       string          `json:"authority"`
	PersistentURL   string          `json:"persistentUrl,omitempty"`
	Publisher       string          `json:"publisher,omitempty"`
	PublicationDate string          `json:"publicationDate,omitempty"`
	LatestVersion   *DatasetVersion `json:"latestVersion,omitempty"`
}

// PersistentID returns the dataset's persistent id.
func (d *Dataset) PersistentID() string {
	return PersistentID(d.Protocol, d.Authority, d.Identifier)
}

// DatasetVersion is one version of a dataset.
type DatasetVersion struct {
	ID                  int64       `json:"id"`
	DatasetID           int64       `json:"datasetId,omitempty"`
	DatasetPersistentID string      `json:"datasetPersistentId,omitempty"`
	VersionNumber       int         `json:"versionNumber,omitempty"`
	VersionMinorNumber  int         `json:"versionMinorNumber,omitempty"`
	VersionState        string      `json:"versionState"`
	CreateTime          string      `json:"createTime,omitempty"`
	LastUpdateTime      string      `json:"lastUpdateTime,omitempty"`
	ReleaseTime         string      `json:"releaseTime,omitempty"`
	Files               []FileEntry `json:"files,omitempty"`
}

// CreatedDataset identifies a newly created dataset.
type CreatedDataset struct {
	ID           int64  `json:"id"`
	PersistentID string `json:"persistentId"`
}

// Author is a dataset author.
type Author struct {
	Name string
	// Affiliation defaults to the configured affiliation.
	Affiliation string
}

// DatasetContact is a dataset point of contact.
type DatasetContact struct {
	Name  string
	Email string
}

// NewDataset describes a dataset to create. Title, at least one author,
// at least one contact, Description and at least one subject are
// required.
type NewDataset struct {
	Title       string
	Authors     []Author
	Contacts    []DatasetContact
	Description string
	// Subjects are controlled vocabulary terms such as "Medicine, Health
	// and Life Sciences".
	Subjects []string
	Terms    terms.Terms
}

// field is a metadata block field in the native API JSON.
type field struct {
	TypeName  string `json:"typeName"`
	Multiple  bool   `json:"multiple"`
	TypeClass string `json:"typeClass"`
	Value     any    `json:"value"`
}

func primitive(name, value string) field {
	return field{TypeName: name, TypeClass: "primitive", Value: value}
}

func compound(name string, values []map[string]field) field {
	return field{TypeName: name, Multiple: true, TypeClass: "compound", Value: values}
}

type metadataBlock struct {
	DisplayName string  `json:"displayName"`
	Fields      []field `json:"fields"`
}

type datasetVersionRequest struct {
	terms.Terms
	MetadataBlocks map[string]metadataBlock `json:"metadataBlocks"`
}

type datasetRequest struct {
	DatasetVersion datasetVersionRequest `json:"datasetVersion"`
}

func (d NewDataset) validate() error {
	switch {
	case d.Title == "":
		return missing("title")
	case len(d.Authors) == 0 || d.Authors[0].Name == "":
		return missing("author")
	case len(d.Contacts) == 0 || d.Contacts[0].Email == "":
		return missing("datasetContact")
	case d.Description == "":
		return missing("dsDescription")
	case len(d.Subjects) == 0:
		return missing("subject")
	}
	return nil
}

// request renders the native API JSON with the citation block and terms.
func (d NewDataset) request(affiliation string) datasetRequest {
	authors := make([]map[string]field, 0, len(d.Authors))
	for _, a := range d.Authors {
		aff := a.Affiliation
		if aff == "" {
			aff = affiliation
		}
		entry := map[string]field{"authorName": primitive("authorName", a.Name)}
		if aff != "" {
			entry["authorAffiliation"] = primitive("authorAffiliation", aff)
		}
		authors = append(authors, entry)
	}

	contacts := make([]map[string]field, 0, len(d.Contacts))
	for _, c := range d.Contacts {
		entry := map[string]field{"datasetContactEmail": primitive("datasetContactEmail", c.Email)}
		if c.Name != "" {
			entry["datasetContactName"] = primitive("datasetContactName", c.Name)
		}
		contacts = append(contacts, entry)
	}

	citation := metadataBlock{
		DisplayName: "Citation Metadata",
		Fields: []field{
			primitive("title", d.Title),
			compound("author", authors),
			compound("datasetContact", contacts),
			compound("dsDescription", []map[string]field{
				{"dsDescriptionValue": primitive("dsDescriptionValue", d.Description)},
			}),
			{TypeName: "subject", Multiple: true, TypeClass: "controlledVocabulary", Value: d.Subjects},
		},
	}

	return datasetRequest{DatasetVersion: datasetVersionRequest{
		Terms:          d.Terms,
		MetadataBlocks: map[string]metadataBlock{"citation": citation},
	}}
}

// FileMetadata describes an uploaded file.
type FileMetadata struct {
	Description    string   `json:"description,omitempty"`
	DirectoryLabel string   `json:"directoryLabel,omitempty"`
	Restrict       bool     `json:"restrict"`
	Categories     []string `json:"categories,omitempty"`
}

// DefaultCategory is assigned to uploaded files without a category.
const DefaultCategory = "Data"

// FileEntry is a file in a dataset version.
type FileEntry struct {
	Label            string   `json:"label"`
	Description      string   `json:"description,omitempty"`
	DirectoryLabel   string   `json:"directoryLabel,omitempty"`
	Restricted       bool     `json:"restricted"`
	Version          int      `json:"version,omitempty"`
	DatasetVersionID int64    `json:"datasetVersionId,omitempty"`
	Categories       []string `json:"categories,omitempty"`
	DataFile         DataFile `json:"dataFile"`
}

// DataFile is the stored file behind a FileEntry.
type DataFile struct {
	ID                int64     `json:"id"`
	PersistentID      string    `json:"persistentId,omitempty"`
	Filename          string    `json:"filename"`
	ContentType       string    `json:"contentType,omitempty"`
	Filesize          int64     `json:"filesize"`
	Description       string    `json:"description,omitempty"`
	StorageIdentifier string    `json:"storageIdentifier,omitempty"`
	MD5               string    `json:"md5,omitempty"`
	Checksum          *Checksum `json:"checksum,omitempty"`
	CreationDate      string    `json:"creationDate,omitempty"`
}

// Checksum is a file digest.
type Checksum struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// contactAddresses turns a comma-separated list of addresses or user names
// into contacts.
func contactAddresses(list, domain string) []Contact {
	var contacts []Contact
	for _, elt := range strings.Split(list, ",") {
		elt = strings.TrimSpace(elt)
		if elt == "" {
			continue
		}
		if !strings.Contains(elt, "@") && domain != "" {
			elt += "@" + domain
		}
		contacts = append(contacts, Contact{ContactEmail: elt})
	}
	return contacts
}
