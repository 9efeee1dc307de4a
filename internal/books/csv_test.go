package books

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVField(t *testing.T) {
	assert.Equal(t, "plain", csvField("plain"))
	assert.Equal(t, `"Hobbit, The"`, csvField("Hobbit, The"))
	assert.Equal(t, `"say ""hi"""`, csvField(`say "hi"`))
	assert.Equal(t, "", csvField(""))
	assert.Equal(t, " leading space", csvField(" leading space"))
}

func TestWriteCSV(t *testing.T) {
	list := []*Book{
		{Title: "Hobbit, The", Author: "Tolkien", Genre: "Fantasy", Status: StatusCompleted, Year: 1937, ISBN: "9780261102217"},
		{Title: `The "Dune"`, Author: "Herbert", Status: StatusUnread},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, list))

	want := "Title,Author,Genre,Status,Year,ISBN\n" +
		`"Hobbit, The",Tolkien,Fantasy,completed,1937,9780261102217` + "\n" +
		`"The ""Dune""",Herbert,,unread,,N/A` + "\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteCSVEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil))
	assert.Equal(t, "Title,Author,Genre,Status,Year,ISBN\n", buf.String())
}
