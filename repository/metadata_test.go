package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRecordMetadata(t *testing.T) {
	t.Run("full catalog entry", func(t *testing.T) {
		metadata := NewRecordMetadata(&BookMetadata{
			Id:    84,
			Title: "Frankenstein; Or, The Modern Prometheus",
			Authors: []Author{
				{Name: "Shelley, Mary Wollstonecraft"},
			},
			Subjects:    []string{"Science fiction", "Horror tales"},
			Bookshelves: []string{"Gothic Fiction", "Movie Books", "Precursors of Science Fiction", "Extra Shelf"},
			Summaries:   []string{"A scientist creates a living being."},
		})

		assert.Equal(t, "publication-book", metadata.ResourceType.Id)
		assert.Equal(t, "Frankenstein; Or, The Modern Prometheus", metadata.Title)
		assert.Equal(t, "Project Gutenberg", metadata.Publisher)
		assert.Equal(t, defaultPublicationDate, metadata.PublicationDate)
		assert.Equal(t, "A scientist creates a living being.", metadata.Description)

		require.Len(t, metadata.Creators, 1)
		person := metadata.Creators[0].PersonOrOrg
		assert.Equal(t, "personal", person.Type)
		assert.Equal(t, "Shelley, Mary Wollstonecraft", person.Name)
		assert.Equal(t, "Shelley", person.FamilyName)
		assert.Equal(t, "Mary Wollstonecraft", person.GivenName)

		// Two subjects plus the first three bookshelves.
		require.Len(t, metadata.Subjects, 5)
		assert.Equal(t, "Science fiction", metadata.Subjects[0].Subject)
		assert.Equal(t, "Gothic Fiction", metadata.Subjects[2].Subject)
		assert.Equal(t, "Precursors of Science Fiction", metadata.Subjects[4].Subject)

		require.Len(t, metadata.Rights, 1)
		assert.Equal(t, "Public Domain", metadata.Rights[0].Title["en"])

		require.Len(t, metadata.AdditionalDescriptions, 1)
		assert.Contains(t, metadata.AdditionalDescriptions[0].Description, "eBook #84")
	})

	t.Run("author without comma uses full name as family name", func(t *testing.T) {
		metadata := NewRecordMetadata(&BookMetadata{
			Id:      1,
			Title:   "Anonymous Tales",
			Authors: []Author{{Name: "Homer"}},
		})

		require.Len(t, metadata.Creators, 1)
		person := metadata.Creators[0].PersonOrOrg
		assert.Equal(t, "Homer", person.Name)
		assert.Equal(t, "Homer", person.FamilyName)
		assert.Empty(t, person.GivenName)
	})

	t.Run("missing authors fall back to unknown", func(t *testing.T) {
		metadata := NewRecordMetadata(&BookMetadata{Id: 2, Title: "Orphan Work"})

		require.Len(t, metadata.Creators, 1)
		person := metadata.Creators[0].PersonOrOrg
		assert.Equal(t, "Unknown Author", person.Name)
		assert.Equal(t, "Unknown", person.FamilyName)
	})

	t.Run("missing title synthesized from id", func(t *testing.T) {
		metadata := NewRecordMetadata(&BookMetadata{Id: 1342})
		assert.Equal(t, "Book 1342", metadata.Title)
	})

	t.Run("no description without summaries", func(t *testing.T) {
		metadata := NewRecordMetadata(&BookMetadata{Id: 3, Title: "Plain"})
		assert.Empty(t, metadata.Description)
		assert.Empty(t, metadata.Subjects)
	})
}
