// Package certificate renders completion certificates as single-page A4
// landscape PDF documents.
//
// Artwork (header banner, badge, signature) is optional. When an asset is
// missing or cannot be embedded, the renderer draws a text and shape
// equivalent instead, so rendering never fails because of artwork.
package certificate

import (
	"regexp"
	"strings"

	"github.com/JonMunkholm/certbatch/internal/course"
)

// Template holds the fixed wording printed on every certificate.
type Template struct {
	Organisation   string
	ShortName      string
	ConductedBy    string
	Cohort         string
	Signatory      string
	SignatoryTitle string
}

// DefaultTemplate returns the wording of the foundation's first cohort.
func DefaultTemplate() Template {
	return Template{
		Organisation:   "Bourdillon Omijeh Foundation",
		ShortName:      "B.O.F",
		ConductedBy:    "Bourdillon Omijeh Foundation (BOF)",
		Cohort:         "Cohort 1 on the 20th July, 2025",
		Signatory:      "Bourdillon Omijeh",
		SignatoryTitle: "President, Bourdillon Omijeh Foundation (BOF)",
	}
}

// Content is the text of one certificate, shared by the PDF and HTML views.
type Content struct {
	Title          string
	Subtitle       string
	Preamble       string
	Name           string
	CourseLine     string
	Conducted      string
	Signatory      string
	SignatoryTitle string
	Organisation   string
	ShortName      string
}

// Content fills the template for a candidate and course.
func (t Template) Content(candidateName string, c course.Course) Content {
	return Content{
		Title:          "CERTIFICATE",
		Subtitle:       "OF COMPLETION",
		Preamble:       "THIS IS TO CERTIFY THAT",
		Name:           strings.ToUpper(strings.TrimSpace(candidateName)),
		CourseLine:     "has successfully completed the " + c.DisplayName(),
		Conducted:      "Course, conducted by " + t.ConductedBy + ", " + t.Cohort + ".",
		Signatory:      t.Signatory,
		SignatoryTitle: t.SignatoryTitle,
		Organisation:   t.Organisation,
		ShortName:      t.ShortName,
	}
}

var (
	whitespace = regexp.MustCompile(`\s+`)
	pathChars  = strings.NewReplacer("/", "-", `\`, "-")
)

// FileName returns the download name for a certificate, e.g.
// "Ada_Lovelace_Python_Programming_Certificate.pdf".
func FileName(candidateName string, c course.Course) string {
	name := whitespace.ReplaceAllString(strings.TrimSpace(candidateName), "_")
	crs := whitespace.ReplaceAllString(c.String(), "_")
	return pathChars.Replace(name + "_" + crs + "_Certificate.pdf")
}

// StoredName returns the name a sink keeps a certificate under. The
// candidate ID keeps candidates who share a name from overwriting each
// other.
func StoredName(candidateID, candidateName string, c course.Course) string {
	base := strings.TrimSuffix(FileName(candidateName, c), ".pdf")
	return pathChars.Replace(base + "_" + candidateID + ".pdf")
}
