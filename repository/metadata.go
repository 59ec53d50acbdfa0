// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package repository

import (
	"fmt"
	"strings"
)

// maxBookshelfSubjects caps how many bookshelf entries are carried over
// as subjects.
const maxBookshelfSubjects = 3

// defaultPublicationDate is used for works without a known publication
// date, which covers most public domain texts.
const defaultPublicationDate = "1900-01-01"

// BookMetadata is the upstream catalog entry for one book.
type BookMetadata struct {
	Id          int      `json:"id"`
	Title       string   `json:"title"`
	Authors     []Author `json:"authors"`
	Subjects    []string `json:"subjects"`
	Bookshelves []string `json:"bookshelves"`
	Summaries   []string `json:"summaries"`
}

// Author names a contributor, usually in "Last, First" form.
type Author struct {
	Name string `json:"name"`
}

// RecordMetadata is the records-platform metadata block for a draft.
type RecordMetadata struct {
	ResourceType           ResourceType            `json:"resource_type"`
	Title                  string                  `json:"title"`
	Creators               []Creator               `json:"creators"`
	PublicationDate        string                  `json:"publication_date"`
	Description            string                  `json:"description,omitempty"`
	Subjects               []Subject               `json:"subjects,omitempty"`
	Publisher              string                  `json:"publisher,omitempty"`
	Rights                 []Rights                `json:"rights,omitempty"`
	AdditionalDescriptions []AdditionalDescription `json:"additional_descriptions,omitempty"`
}

type ResourceType struct {
	Id string `json:"id"`
}

type Creator struct {
	PersonOrOrg PersonOrOrg `json:"person_or_org"`
}

type PersonOrOrg struct {
	Type       string `json:"type"`
	Name       string `json:"name"`
	GivenName  string `json:"given_name,omitempty"`
	FamilyName string `json:"family_name,omitempty"`
}

type Subject struct {
	Subject string `json:"subject"`
}

type Rights struct {
	Title       map[string]string `json:"title"`
	Description map[string]string `json:"description,omitempty"`
}

type AdditionalDescription struct {
	Description string       `json:"description"`
	Type        ResourceType `json:"type"`
}

// NewRecordMetadata converts an upstream catalog entry into the
// records-platform metadata shape.
func NewRecordMetadata(book *BookMetadata) *RecordMetadata {
	title := book.Title
	if title == "" {
		title = fmt.Sprintf("Book %d", book.Id)
	}

	metadata := &RecordMetadata{
		ResourceType:    ResourceType{Id: "publication-book"},
		Title:           title,
		Creators:        buildCreators(book.Authors),
		PublicationDate: defaultPublicationDate,
		Publisher:       "Project Gutenberg",
		Rights: []Rights{{
			Title: map[string]string{"en": "Public Domain"},
			Description: map[string]string{
				"en": "This work is in the public domain in the United States.",
			},
		}},
		AdditionalDescriptions: []AdditionalDescription{{
			Description: fmt.Sprintf(
				"Project Gutenberg eBook #%d. Downloaded from https://www.gutenberg.org/ebooks/%d",
				book.Id, book.Id),
			Type: ResourceType{Id: "other"},
		}},
	}

	if len(book.Summaries) > 0 {
		metadata.Description = book.Summaries[0]
	}

	for _, subject := range book.Subjects {
		metadata.Subjects = append(metadata.Subjects, Subject{Subject: subject})
	}
	for i, shelf := range book.Bookshelves {
		if i >= maxBookshelfSubjects {
			break
		}
		metadata.Subjects = append(metadata.Subjects, Subject{Subject: shelf})
	}

	return metadata
}

func buildCreators(authors []Author) []Creator {
	creators := make([]Creator, 0, len(authors))
	for _, author := range authors {
		name := author.Name
		if name == "" {
			name = "Unknown Author"
		}

		person := PersonOrOrg{Type: "personal", Name: name}
		if family, given, ok := strings.Cut(name, ","); ok {
			person.FamilyName = strings.TrimSpace(family)
			person.GivenName = strings.TrimSpace(given)
		} else {
			person.FamilyName = name
		}

		creators = append(creators, Creator{PersonOrOrg: person})
	}

	if len(creators) == 0 {
		creators = append(creators, Creator{PersonOrOrg: PersonOrOrg{
			Type:       "personal",
			Name:       "Unknown Author",
			FamilyName: "Unknown",
		}})
	}

	return creators
}
