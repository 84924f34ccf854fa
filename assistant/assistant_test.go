package assistant

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mabletask/companion/models"
	"mabletask/companion/visibility"
)

func discount(v float64) *float64 { return &v }

func testSnapshot() visibility.Snapshot {
	return visibility.Snapshot{
		VisibleProducts: []visibility.ProductEntry{
			{ID: "shoe-001", Name: "Classic Oxford", Category: "formal", Price: 129.99, Discount: discount(0), Visible: true},
			{ID: "shoe-006", Name: "Leather Loafer", Category: "formal", Price: 99, Discount: discount(25), Description: "Soft leather loafer.", Visible: true},
		},
		BelowFoldProducts: []visibility.ProductEntry{
			{ID: "shoe-014", Name: "Approach Shoe", Category: "outdoor", Price: 139.99, Discount: discount(35)},
		},
		PageURL: "http://shop.test/",
	}
}

func TestFormatSnapshot(t *testing.T) {
	got := FormatSnapshot(testSnapshot())

	assert.True(t, strings.HasPrefix(got, "User is browsing page: http://shop.test/\n"))
	assert.Contains(t, got, "Total products tracked: 3 (Visible: 2, Above fold: 0, Below fold: 1)")
	assert.Contains(t, got, "1. Classic Oxford (ID: shoe-001) | Category: formal | Price: $129.99\n")
	assert.Contains(t, got, "2. Leather Loafer (ID: shoe-006) | Category: formal | Price: $99 | Discount: 25% off | Description: Soft leather loafer.")
	assert.Contains(t, got, "BELOW THE FOLD (1 products - require scrolling down):\n1. Approach Shoe (ID: shoe-014)")
	assert.NotContains(t, got, "ABOVE THE FOLD")
}

func TestFormatSnapshot_Empty(t *testing.T) {
	got := FormatSnapshot(visibility.Snapshot{})
	assert.Contains(t, got, "User is browsing page: Unknown")
	assert.Contains(t, got, "VISIBLE PRODUCTS: None currently on screen.")
}

func TestBuildSystemPrompt(t *testing.T) {
	prefs := &models.Preferences{IsB2B: true, PreferredCategories: []string{"work", "outdoor"}, HiddenCategories: []string{"formal"}}
	got := BuildSystemPrompt(prefs, "CTX")

	assert.Contains(t, got, "Customer Type: B2B business customer")
	assert.Contains(t, got, "Preferred Categories: work, outdoor")
	assert.Contains(t, got, "Categories to avoid: formal")
	assert.Contains(t, got, "=== CURRENT PAGE CONTEXT ===\nCTX\n=== END CONTEXT ===")

	plain := BuildSystemPrompt(nil, "")
	assert.NotContains(t, plain, "Customer Type")
	assert.NotContains(t, plain, "CURRENT PAGE CONTEXT")
	assert.Contains(t, plain, "```filters")
}

func TestExtractFilters(t *testing.T) {
	reply := "## Casual picks\n\nHere you go.\n\n```filters\n{\"category\": \"casual\", \"max_price\": \"120\", \"has_discount\": true, \"customer_type\": \"wholesale\", \"min_discount\": null}\n```\n\n\n\nEnjoy!"

	f := ExtractFilters(reply)
	require.NotNil(t, f)
	assert.Equal(t, "casual", f.Category)
	require.NotNil(t, f.MaxPrice)
	assert.Equal(t, 120.0, *f.MaxPrice)
	require.NotNil(t, f.HasDiscount)
	assert.True(t, *f.HasDiscount)
	assert.Empty(t, f.CustomerType)
	assert.Nil(t, f.MinDiscount)
	assert.Nil(t, f.MinPrice)

	assert.Equal(t, "## Casual picks\n\nHere you go.\n\nEnjoy!", StripFilters(reply))
}

func TestExtractFilters_None(t *testing.T) {
	assert.Nil(t, ExtractFilters("no block here"))
	assert.Nil(t, ExtractFilters("```filters\nnot json\n```"))
	assert.Nil(t, ExtractFilters("```filters\n{\"category\": \"empty\"}\n```"))
	assert.Equal(t, "plain", StripFilters("  plain \n"))
}

type fakeResponder struct {
	got   []Message
	reply string
	err   error
}

func (f *fakeResponder) Respond(_ context.Context, m []Message) (string, error) {
	f.got = m
	return f.reply, f.err
}

type fakeHistory struct {
	past     []models.ChatMessage
	stored   []models.ChatMessage
	limit    int
	getErr   error
	storeErr error
}

func (f *fakeHistory) InsertMessages(_ context.Context, m []models.ChatMessage) error {
	f.stored = append(f.stored, m...)
	return f.storeErr
}

func (f *fakeHistory) GetHistory(_ context.Context, _, _ string, limit int) ([]models.ChatMessage, error) {
	f.limit = limit
	return f.past, f.getErr
}

type fakePrefs struct {
	prefs *models.Preferences
	err   error
}

func (f fakePrefs) Get(context.Context, int) (*models.Preferences, error) {
	return f.prefs, f.err
}

func TestService_Reply(t *testing.T) {
	resp := &fakeResponder{reply: "Try [Leather Loafer](#shoe-006).\n\n```filters\n{\"category\": \"formal\"}\n```"}
	hist := &fakeHistory{past: []models.ChatMessage{
		{Role: models.RoleUser, Content: "hi"},
		{Role: models.RoleAssistant, Content: "hello"},
	}}
	svc := NewService(resp, hist, fakePrefs{prefs: models.DefaultPreferences(3)}, 10, nil)
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	snap := testSnapshot()
	out, err := svc.Reply(context.Background(), 3, models.ChatRequest{Message: "formal shoes?", SessionID: "s1"}, &snap)
	require.NoError(t, err)

	assert.Equal(t, "Try [Leather Loafer](#shoe-006).", out.Response)
	assert.Equal(t, "s1", out.SessionID)
	assert.Equal(t, 2, out.VisibleCount)
	assert.Equal(t, fixed, out.Timestamp)
	require.NotNil(t, out.Filters)
	assert.Equal(t, "formal", out.Filters.Category)

	require.Len(t, resp.got, 4)
	assert.Equal(t, "system", resp.got[0].Role)
	assert.Contains(t, resp.got[0].Content, "Leather Loafer (ID: shoe-006)")
	assert.Equal(t, "hello", resp.got[2].Content)
	assert.Equal(t, Message{Role: models.RoleUser, Content: "formal shoes?"}, resp.got[3])
	assert.Equal(t, 10, hist.limit)

	require.Len(t, hist.stored, 2)
	assert.Equal(t, models.RoleUser, hist.stored[0].Role)
	assert.Equal(t, "3", hist.stored[0].UserID)
	assert.Equal(t, out.Response, hist.stored[1].Content)
	assert.True(t, hist.stored[1].Timestamp.After(hist.stored[0].Timestamp))
}

func TestService_ReplyNewSessionDegradesGracefully(t *testing.T) {
	resp := &fakeResponder{reply: "Hello!"}
	hist := &fakeHistory{storeErr: errors.New("clickhouse down")}
	svc := NewService(resp, hist, fakePrefs{err: errors.New("postgres down")}, 10, nil)

	out, err := svc.Reply(context.Background(), 1, models.ChatRequest{Message: "hi"}, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, out.SessionID)
	assert.Nil(t, out.Filters)
	assert.Equal(t, 0, out.VisibleCount)
	assert.Len(t, resp.got, 2, "no history lookup for a new session")
	assert.NotContains(t, resp.got[0].Content, "CURRENT PAGE CONTEXT")
}

func TestService_ReplyResponderError(t *testing.T) {
	svc := NewService(&fakeResponder{err: errors.New("boom")}, &fakeHistory{}, fakePrefs{}, 10, nil)
	_, err := svc.Reply(context.Background(), 1, models.ChatRequest{Message: "hi"}, nil)
	assert.ErrorContains(t, err, "boom")
}
