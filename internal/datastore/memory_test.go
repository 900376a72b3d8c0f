package datastore

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stephankoppes/book-nest/internal/domain"
)

func testLibraryDB(t *testing.T, db domain.LibraryDatabase) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, db.InsertBooks(ctx, []domain.BookInsert{
		{Title: "testy mc test face", Author: "An Author", UserID: "u-1"},
		{Title: "second", Author: "An Author", UserID: "u-1"},
		{Title: "someone else's", Author: "Other", UserID: "u-2"},
	}))

	books, err := db.ListBooksByUser(ctx, "u-1")
	require.NoError(t, err)
	require.Len(t, books, 2)
	assert.Equal(t, "testy mc test face", books[0].Title)
	assert.NotEmpty(t, books[0].CreatedAt)

	id := books[0].ID
	newDesc := "new desc"
	status, err := db.UpdateBook(ctx, id, domain.BookUpdate{Description: &newDesc})
	require.NoError(t, err)
	require.Equal(t, http.StatusNoContent, status)

	books, err = db.ListBooksByUser(ctx, "u-1")
	require.NoError(t, err)
	require.NotNil(t, books[0].Description)
	assert.Equal(t, newDesc, *books[0].Description)

	status, err = db.DeleteBook(ctx, id)
	require.NoError(t, err)
	require.Equal(t, http.StatusNoContent, status)

	books, err = db.ListBooksByUser(ctx, "u-1")
	require.NoError(t, err)
	assert.Len(t, books, 1)
}

func TestMemoryDB(t *testing.T) {
	testLibraryDB(t, NewMemoryDB())
}

func TestMemoryDBUserNames(t *testing.T) {
	ctx := context.Background()
	db := NewMemoryDB()

	_, err := db.GetUserName(ctx, "u-1")
	require.Error(t, err, "want an error when no name row exists")

	require.NoError(t, db.InsertUserName(ctx, "u-1", "Frida"))
	name, err := db.GetUserName(ctx, "u-1")
	require.NoError(t, err)
	assert.Equal(t, "Frida", name)
}

func TestMemoryIdentity(t *testing.T) {
	ctx := context.Background()
	ids := NewMemoryIdentity()

	session, err := ids.SignUp(ctx, "frida@example.com", "secret")
	require.NoError(t, err)
	require.NotNil(t, session.User)
	assert.NotEmpty(t, session.AccessToken)

	_, err = ids.SignUp(ctx, "frida@example.com", "other")
	require.Error(t, err, "duplicate registration must fail")

	_, err = ids.SignInWithPassword(ctx, "frida@example.com", "wrong")
	require.Error(t, err)

	again, err := ids.SignInWithPassword(ctx, "frida@example.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, session.User.ID, again.User.ID)

	user, err := ids.UserFromToken(ctx, again.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "frida@example.com", user.Email)

	require.NoError(t, ids.SignOut(ctx, again.AccessToken))
	_, err = ids.UserFromToken(ctx, again.AccessToken)
	require.Error(t, err, "token must be invalid after sign out")

	require.NoError(t, ids.DeleteUser(ctx, session.User.ID))
	_, err = ids.SignInWithPassword(ctx, "frida@example.com", "secret")
	require.Error(t, err, "deleted account must not sign in")
}

func TestMemoryCovers(t *testing.T) {
	ctx := context.Background()
	covers := NewMemoryCovers("https://cdn.test")

	require.NoError(t, covers.UploadCover(ctx, "u-1/1_photo.jpg", "image/jpeg", strings.NewReader("jpeg-bytes")))

	data, ok := covers.Object("u-1/1_photo.jpg")
	require.True(t, ok)
	assert.Equal(t, []byte("jpeg-bytes"), data)
	assert.Equal(t, "https://cdn.test/covers/u-1/1_photo.jpg", covers.PublicCoverURL("u-1/1_photo.jpg"))
}
