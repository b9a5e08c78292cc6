// Package terms holds the standard terms of use and access offered for new
// datasets.
package terms

import (
	"fmt"
	"sort"
)

// License names a standard license.
type License struct {
	Name string `json:"name"`
	URI  string `json:"uri"`
}

// Terms are the terms fields of a dataset version. Empty fields are
// omitted from the dataset JSON.
type Terms struct {
	License                    *License `json:"license,omitempty"`
	TermsOfUse                 string   `json:"termsOfUse,omitempty"`
	ConfidentialityDeclaration string   `json:"confidentialityDeclaration,omitempty"`
	SpecialPermissions         string   `json:"specialPermissions,omitempty"`
	Restrictions               string   `json:"restrictions,omitempty"`
	CitationRequirements       string   `json:"citationRequirements,omitempty"`
	Conditions                 string   `json:"conditions,omitempty"`
	Disclaimer                 string   `json:"disclaimer,omitempty"`
	TermsOfAccess              string   `json:"termsOfAccess,omitempty"`
}

const (
	acceptance = "By downloading or otherwise accessing the materials, the downloader represents his/her acceptance of the Terms of Use. "
	readTerms  = "To access and use the dataset please read the Terms of Use and the Terms of Access."
	seeDSA     = "See Data Sharing Agreement."
	dsaTerms   = "The standard Data Sharing Agreement (DSA) of the UMC Utrecht must be signed without adjustments. This DSA is in compliance with Dutch law. No costs are involved."
	requestDSA = "To obtain access to the data, a <a href=\"https://www.umcutrecht.nl/en/data-request-form-umc-utrecht\">request form</a> has to be completed. In addition to a completed request form, a  Data Sharing Agreement (DSA) in line with GDPR regulations and/or a Research Collaboration Agreement (RCA) should be signed before data is shared. Only data requests in line with the Terms of Use will be taken into consideration. "
)

var restricted = Terms{
	TermsOfUse:                 dsaTerms,
	ConfidentialityDeclaration: "no",
	SpecialPermissions:         requestDSA,
	Restrictions:               seeDSA,
	CitationRequirements:       seeDSA,
	Conditions:                 readTerms,
	Disclaimer:                 seeDSA,
	TermsOfAccess:              acceptance,
}

var standard = map[string]Terms{
	// Open access under CC BY 4.0.
	"type_1": {
		License:       &License{Name: "CC-BY-4.0", URI: "http://creativecommons.org/licenses/by/4.0"},
		TermsOfAccess: acceptance,
	},
	// Open access under the institutional license.
	"type_2": {
		TermsOfUse:                 "See UMC Utrecht license.",
		ConfidentialityDeclaration: "no",
		SpecialPermissions:         "no",
		Restrictions:               "no",
		CitationRequirements:       "We ask researchers to include an acknowledgment on behalf of the UMC Utrecht. If you use this dataset in a publication, please cite the dataset, and include the following in the citation: author; year; dataset title; dataset DOI; datase version; repository.",
		Conditions:                 readTerms,
		Disclaimer:                 "It is expressly understood that UMC Utrecht does not make any warranties regarding the data and specifically does not warrant or guarantee that the data will be accurate, be merchantable or useful for any particular purpose. Use of the data is at your own risk. UMC Utrecht cannot and shall not be held liable for any claims or damages by you or any third party, in connection with or as a result of the use of data by you.",
		TermsOfAccess:              "By downloading or otherwise accessing the materials, the downloader represents his/her acceptance of the Terms of Use.",
	},
	// Restricted access under a data sharing agreement.
	"type_3a": restricted,
	"type_3b": restricted,
}

// Lookup returns the terms registered under name.
func Lookup(name string) (Terms, error) {
	t, ok := standard[name]
	if !ok {
		return Terms{}, fmt.Errorf("unknown terms %q (choose one of %v)", name, Names())
	}
	if t.License != nil {
		l := *t.License
		t.License = &l
	}
	return t, nil
}

// Names lists the registered terms in sorted order.
func Names() []string {
	names := make([]string, 0, len(standard))
	for name := range standard {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
