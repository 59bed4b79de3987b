// Package baseline describes one year's archive of sequentially numbered
// files and derives the remote locations of its members.
package baseline

import (
	"fmt"
	"strings"
)

// DefaultBaseURL is the HTTPS endpoint serving the baseline archives.
const DefaultBaseURL = "https://ftp.ncbi.nlm.nih.gov/pubmed/baseline/"

const (
	extension      = ".xml.gz"
	checksumSuffix = ".md5"
)

// Collection identifies one year's baseline archive.
type Collection struct {
	Year    int
	BaseURL string // DefaultBaseURL when empty
}

// Prefix returns the file-name prefix shared by every member of the
// collection, e.g. "pubmed25n" for 2025.
func (c Collection) Prefix() string {
	return fmt.Sprintf("pubmed%02dn", c.Year%100)
}

// Suffix returns the file-name suffix shared by every member.
func (c Collection) Suffix() string {
	return extension
}

// Descriptor locates one remote file and its co-located checksum resource.
// Descriptors are values derived from the naming convention; once generated
// they are never mutated.
type Descriptor struct {
	Name        string
	URL         string
	ChecksumURL string
}

// Descriptor returns the descriptor for the given 1-based sequence number.
func (c Collection) Descriptor(seq int) Descriptor {
	name := fmt.Sprintf("%s%04d%s", c.Prefix(), seq, extension)
	url := c.baseURL() + name
	return Descriptor{
		Name:        name,
		URL:         url,
		ChecksumURL: url + checksumSuffix,
	}
}

// Descriptors returns descriptors for sequence numbers 1 through count.
func (c Collection) Descriptors(count int) []Descriptor {
	descriptors := make([]Descriptor, 0, count)
	for seq := 1; seq <= count; seq++ {
		descriptors = append(descriptors, c.Descriptor(seq))
	}
	return descriptors
}

func (c Collection) baseURL() string {
	base := c.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base
}
