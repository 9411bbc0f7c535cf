package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseContentKind(t *testing.T) {
	for _, name := range []string{"text", "image", "file", "video", "VIDEO"} {
		kind, err := ParseContentKind(name)
		require.NoError(t, err, name)
		assert.Contains(t, ContentKinds(), kind)
	}

	_, err := ParseContentKind("user")
	require.Error(t, err)
}

func TestContentRequestValidate(t *testing.T) {
	req := &ContentRequest{Title: "  Intro  ", Body: "hello"}
	require.NoError(t, req.Validate(ContentText, false))
	assert.Equal(t, "Intro", req.Title)

	req = &ContentRequest{Title: "Intro"}
	require.ErrorContains(t, req.Validate(ContentText, false), "body is required")

	req = &ContentRequest{Title: "Clip", VideoURL: "ftp://example.com/a.mp4"}
	require.Error(t, req.Validate(ContentVideo, false))

	req = &ContentRequest{Title: "Clip", VideoURL: "https://example.com/a.mp4"}
	require.NoError(t, req.Validate(ContentVideo, false))

	req = &ContentRequest{Title: "Diagram"}
	require.ErrorContains(t, req.Validate(ContentImage, false), "file is required")
	require.NoError(t, req.Validate(ContentImage, true))

	neg := -1
	req = &ContentRequest{Title: "Notes", Body: "x", Position: &neg}
	require.Error(t, req.Validate(ContentText, false))
}

func TestReorderRequestValidate(t *testing.T) {
	require.NoError(t, ReorderRequest{}.Validate())
	require.NoError(t, ReorderRequest{"a": 0, "b": 3}.Validate())
	require.Error(t, ReorderRequest{"a": -1}.Validate())
	require.Error(t, ReorderRequest{"": 1}.Validate())
}

func TestCreateModuleRequestValidate(t *testing.T) {
	req := &CreateModuleRequest{Title: " Basics "}
	require.NoError(t, req.Validate())
	assert.Equal(t, "Basics", req.Title)
	assert.Nil(t, req.Position)

	req = &CreateModuleRequest{}
	require.ErrorContains(t, req.Validate(), "title is required")
}

func TestScopesFollowParent(t *testing.T) {
	m := &Module{CourseID: "c1"}
	assert.Equal(t, ModuleScope{CourseID: "c1"}, m.OrderScope())
	m.SetPosition(4)
	assert.Equal(t, 4, m.Position)

	c := &Content{ModuleID: "m1"}
	assert.Equal(t, ContentScope{ModuleID: "m1"}, c.OrderScope())
}
