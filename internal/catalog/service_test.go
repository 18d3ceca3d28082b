package catalog

import (
	"fmt"
	"strings"
	"testing"

	EventBus "github.com/asaskevich/EventBus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talkincode/toughcatalog/internal/domain"
)

func TestService_CreateAndGet(t *testing.T) {
	svc, _, db := setupService(t)
	cat := seedCategory(t, db, "Elektronik")

	in := input("Laptop Gaming X1", "1500000", "25", catID(cat))
	in.Description = "RTX inside"
	p, err := svc.Create(bg, in)
	require.NoError(t, err)

	assert.Equal(t, "laptop-gaming-x1", p.Slug)
	assert.True(t, p.IsActive)
	require.NotNil(t, p.Category)
	assert.Equal(t, "Elektronik", p.Category.Name)

	got, err := svc.Get(bg, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Laptop Gaming X1", got.Name)
	assert.Equal(t, "1500000", got.Price.String())
	assert.Equal(t, 25, got.Stock)
	require.NotNil(t, got.Description)
	assert.Equal(t, "RTX inside", *got.Description)

	view := NewProductView(got)
	assert.Equal(t, "Rp 1.500.000", view.FormattedPrice)
	assert.Equal(t, StockIn, view.StockStatus)
}

func TestService_CreateInactive(t *testing.T) {
	svc, _, db := setupService(t)
	cat := seedCategory(t, db, "Elektronik")

	in := input("Mouse", "10", "0", catID(cat))
	in.IsActive = "0"
	p, err := svc.Create(bg, in)
	require.NoError(t, err)
	assert.False(t, p.IsActive)

	got, err := svc.Get(bg, p.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)
	assert.Equal(t, 0, got.Stock)
}

func TestService_CreateValidationNothingStored(t *testing.T) {
	svc, _, db := setupService(t)
	seedCategory(t, db, "Elektronik")

	_, err := svc.Create(bg, input("", "-1", "x", "999"))
	require.Error(t, err)
	assert.True(t, IsValidation(err))

	var count int64
	require.NoError(t, db.Model(&domain.Product{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestService_CreateSlugConflict(t *testing.T) {
	svc, _, db := setupService(t)
	cat := seedCategory(t, db, "Elektronik")

	_, err := svc.Create(bg, input("Laptop Gaming X1", "1", "1", catID(cat)))
	require.NoError(t, err)

	_, err = svc.Create(bg, input("laptop  gaming   x1!", "1", "1", catID(cat)))
	require.Error(t, err)
	assert.True(t, IsConflict(err))
}

func TestService_SlugConflictWithTrashed(t *testing.T) {
	svc, _, db := setupService(t)
	cat := seedCategory(t, db, "Elektronik")

	p, err := svc.Create(bg, input("Kabel HDMI", "1", "1", catID(cat)))
	require.NoError(t, err)
	require.NoError(t, svc.Delete(bg, p.ID))

	_, err = svc.Create(bg, input("Kabel HDMI", "1", "1", catID(cat)))
	assert.True(t, IsConflict(err))
}

func TestService_Update(t *testing.T) {
	svc, _, db := setupService(t)
	cat := seedCategory(t, db, "Elektronik")
	other := seedCategory(t, db, "Aksesoris")

	in := input("Laptop Gaming X1", "1500000", "25", catID(cat))
	in.IsActive = false
	p, err := svc.Create(bg, in)
	require.NoError(t, err)

	updated, err := svc.Update(bg, p.ID, input("Laptop Gaming X2", "1750000.5", "3", catID(other)))
	require.NoError(t, err)
	assert.Equal(t, "laptop-gaming-x2", updated.Slug)
	assert.Equal(t, "1750000.5", updated.Price.String())
	assert.Equal(t, 3, updated.Stock)
	assert.Equal(t, other.ID, updated.CategoryID)
	assert.False(t, updated.IsActive, "absent is_active keeps the stored value")
	assert.Nil(t, updated.Description)

	in = input("Laptop Gaming X2", "1750000.5", "3", catID(other))
	in.IsActive = "true"
	updated, err = svc.Update(bg, p.ID, in)
	require.NoError(t, err)
	assert.True(t, updated.IsActive)
}

func TestService_UpdateSlugConflict(t *testing.T) {
	svc, _, db := setupService(t)
	cat := seedCategory(t, db, "Elektronik")

	a, err := svc.Create(bg, input("Alpha", "1", "1", catID(cat)))
	require.NoError(t, err)
	_, err = svc.Create(bg, input("Beta", "1", "1", catID(cat)))
	require.NoError(t, err)

	_, err = svc.Update(bg, a.ID, input("BETA", "1", "1", catID(cat)))
	assert.True(t, IsConflict(err))

	// a name change that keeps the slug is not a conflict with itself
	same, err := svc.Update(bg, a.ID, input("ALPHA", "1", "1", catID(cat)))
	require.NoError(t, err)
	assert.Equal(t, "ALPHA", same.Name)
	assert.Equal(t, "alpha", same.Slug)
}

func TestService_UpdateMissing(t *testing.T) {
	svc, _, db := setupService(t)
	cat := seedCategory(t, db, "Elektronik")

	_, err := svc.Update(bg, 42, input("Alpha", "1", "1", catID(cat)))
	assert.True(t, IsNotFound(err))

	// not found wins over an invalid payload
	_, err = svc.Update(bg, 42, ProductInput{})
	assert.True(t, IsNotFound(err))
}

func TestService_DeleteTwice(t *testing.T) {
	svc, _, db := setupService(t)
	cat := seedCategory(t, db, "Elektronik")
	p := seedProduct(t, db, cat, "Printer", "100", 5, true)

	require.NoError(t, svc.Delete(bg, p.ID))

	err := svc.Delete(bg, p.ID)
	require.Error(t, err)
	assert.True(t, IsNotFound(err))

	_, err = svc.Get(bg, p.ID)
	assert.True(t, IsNotFound(err))

	var row domain.Product
	require.NoError(t, db.Unscoped().First(&row, "id = ?", p.ID).Error)
	assert.True(t, row.Trashed())
}

func TestService_Restore(t *testing.T) {
	svc, _, db := setupService(t)
	cat := seedCategory(t, db, "Elektronik")
	p := seedProduct(t, db, cat, "Printer", "100", 5, true)

	_, err := svc.Restore(bg, p.ID)
	assert.True(t, IsNotFound(err), "restoring a live product")

	require.NoError(t, svc.Delete(bg, p.ID))
	restored, err := svc.Restore(bg, p.ID)
	require.NoError(t, err)
	assert.False(t, restored.Trashed())

	_, err = svc.Get(bg, p.ID)
	assert.NoError(t, err)

	_, err = svc.Restore(bg, 4242)
	assert.True(t, IsNotFound(err))
}

func TestService_ToggleActiveTwice(t *testing.T) {
	svc, _, db := setupService(t)
	cat := seedCategory(t, db, "Elektronik")
	p := seedProduct(t, db, cat, "Printer", "100", 5, true)

	toggled, err := svc.ToggleActive(bg, p.ID)
	require.NoError(t, err)
	assert.False(t, toggled.IsActive)

	got, err := svc.Get(bg, p.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)

	toggled, err = svc.ToggleActive(bg, p.ID)
	require.NoError(t, err)
	assert.True(t, toggled.IsActive)

	_, err = svc.ToggleActive(bg, 4242)
	assert.True(t, IsNotFound(err))
}

func TestService_Duplicate(t *testing.T) {
	svc, _, db := setupService(t)
	cat := seedCategory(t, db, "Elektronik")

	in := input("Laptop Gaming X1", "1500000", "25", catID(cat))
	in.Description = "RTX inside"
	in.IsActive = "0"
	src, err := svc.Create(bg, in)
	require.NoError(t, err)

	dup, err := svc.Duplicate(bg, src.ID)
	require.NoError(t, err)
	assert.NotEqual(t, src.ID, dup.ID)
	assert.Equal(t, "Laptop Gaming X1 (Copy)", dup.Name)
	assert.Equal(t, "laptop-gaming-x1-copy", dup.Slug)
	assert.True(t, src.Price.Equal(dup.Price))
	assert.Equal(t, src.Stock, dup.Stock)
	assert.Equal(t, src.CategoryID, dup.CategoryID)
	assert.Equal(t, src.IsActive, dup.IsActive)
	require.NotNil(t, dup.Description)
	assert.Equal(t, "RTX inside", *dup.Description)

	_, err = svc.Duplicate(bg, src.ID)
	assert.True(t, IsConflict(err), "second copy collides on slug")

	dup2, err := svc.Duplicate(bg, dup.ID)
	require.NoError(t, err)
	assert.Equal(t, "Laptop Gaming X1 (Copy) (Copy)", dup2.Name)
}

func TestService_DuplicateNameTooLong(t *testing.T) {
	svc, _, db := setupService(t)
	cat := seedCategory(t, db, "Elektronik")
	p := seedProduct(t, db, cat, strings.Repeat("n", 250), "1", 1, true)

	_, err := svc.Duplicate(bg, p.ID)
	fields := validationFields(t, err)
	assert.Contains(t, fields, "name")
}

func TestService_ListPagination(t *testing.T) {
	svc, _, db := setupService(t)
	cat := seedCategory(t, db, "Elektronik")
	for i := 1; i <= 16; i++ {
		seedProduct(t, db, cat, fmt.Sprintf("Produk %02d", i), "1000", i, true)
	}

	page, err := svc.List(bg, ListQuery{})
	require.NoError(t, err)
	assert.Len(t, page.Items, 15)
	assert.Equal(t, int64(16), page.Total)
	assert.Equal(t, 1, page.CurrentPage)
	assert.Equal(t, 2, page.LastPage)
	assert.Equal(t, 1, page.From)
	assert.Equal(t, 15, page.To)
	assert.Equal(t, "Produk 16", page.Items[0].Name, "newest first")
	require.NotNil(t, page.Items[0].Category)

	page, err = svc.List(bg, ListQuery{Page: 2})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, int64(16), page.Total)
	assert.Equal(t, "Produk 01", page.Items[0].Name)
	assert.Equal(t, 16, page.From)
	assert.Equal(t, 16, page.To)

	page, err = svc.List(bg, ListQuery{Page: 9})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.Equal(t, int64(16), page.Total)
	assert.Zero(t, page.From)
}

func TestService_ListFilters(t *testing.T) {
	svc, _, db := setupService(t)
	elektronik := seedCategory(t, db, "Elektronik")
	dapur := seedCategory(t, db, "Dapur")

	laptop := seedProduct(t, db, elektronik, "Laptop Gaming", "15000000", 5, true)
	seedProduct(t, db, elektronik, "LAPTOP Stand", "250000", 0, false)
	seedProduct(t, db, dapur, "Wajan Anti Lengket", "120000", 40, true)
	seedProduct(t, db, dapur, "100% Cotton Lap_Towel", "35000", 12, true)
	kue := seedCategory(t, db, "Kue")
	eclair := seedProduct(t, db, kue, "Éclair Cokelat", "5000", 0, true)
	seedProduct(t, db, kue, "Crème Brûlée", "5000", 0, true)

	names := func(q ListQuery) []string {
		page, err := svc.List(bg, q)
		require.NoError(t, err)
		out := make([]string, 0, len(page.Items))
		for _, p := range page.Items {
			out = append(out, p.Name)
		}
		return out
	}

	assert.ElementsMatch(t, []string{"Laptop Gaming", "LAPTOP Stand", "100% Cotton Lap_Towel"}, names(ListQuery{Search: " lap "}))
	assert.ElementsMatch(t, []string{"100% Cotton Lap_Towel"}, names(ListQuery{Search: "100%"}))
	assert.ElementsMatch(t, []string{"100% Cotton Lap_Towel"}, names(ListQuery{Search: "p_"}), "underscore matches literally")
	assert.ElementsMatch(t, []string{"100% Cotton Lap_Towel"}, names(ListQuery{Search: "%"}), "percent matches literally")
	assert.ElementsMatch(t, []string{"Laptop Gaming", "LAPTOP Stand"}, names(ListQuery{CategoryID: elektronik.ID}))
	assert.ElementsMatch(t, []string{"Laptop Gaming"}, names(ListQuery{Search: "lap", CategoryID: elektronik.ID, ActiveOnly: true}))
	assert.ElementsMatch(t, []string{"Laptop Gaming", "Wajan Anti Lengket", "100% Cotton Lap_Towel"}, names(ListQuery{InStock: true}))

	lo := mustDecimal("100000")
	hi := mustDecimal("250000")
	assert.ElementsMatch(t, []string{"LAPTOP Stand", "Wajan Anti Lengket"}, names(ListQuery{MinPrice: &lo, MaxPrice: &hi}))
	assert.Empty(t, names(ListQuery{Search: "nothing like this"}))

	for _, term := range []string{"Éclair", "éclair", "ÉCLAIR COK", "cokelat"} {
		assert.ElementsMatch(t, []string{"Éclair Cokelat"}, names(ListQuery{Search: term}), term)
	}
	for _, term := range []string{"Crème", "brûlée", "BRÛLÉE"} {
		assert.ElementsMatch(t, []string{"Crème Brûlée"}, names(ListQuery{Search: term}), term)
	}

	_, err := svc.Update(bg, eclair.ID, input("Éclair Vanila", "5000", "0", catID(kue)))
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Éclair Vanila"}, names(ListQuery{Search: "éclair v"}))
	assert.Empty(t, names(ListQuery{Search: "cokelat"}))

	require.NoError(t, svc.Delete(bg, laptop.ID))
	assert.ElementsMatch(t, []string{"LAPTOP Stand", "100% Cotton Lap_Towel"}, names(ListQuery{Search: "lap"}))
	assert.ElementsMatch(t, []string{"Laptop Gaming", "LAPTOP Stand", "100% Cotton Lap_Towel"}, names(ListQuery{Search: "lap", Trashed: TrashedWith}))
	assert.ElementsMatch(t, []string{"Laptop Gaming"}, names(ListQuery{Trashed: TrashedOnly}))
}

func TestService_Categories(t *testing.T) {
	svc, _, db := setupService(t)

	c, err := svc.CreateCategory(bg, "  Rumah Tangga ")
	require.NoError(t, err)
	assert.Equal(t, "rumah-tangga", c.Slug)

	_, err = svc.CreateCategory(bg, "rumah tangga")
	assert.True(t, IsConflict(err))

	_, err = svc.CreateCategory(bg, " ")
	assert.True(t, IsValidation(err))

	_, err = svc.CreateCategory(bg, "Alat Tulis")
	require.NoError(t, err)

	cats, err := svc.Categories(bg)
	require.NoError(t, err)
	require.Len(t, cats, 2)
	assert.Equal(t, "Alat Tulis", cats[0].Name)

	p := seedProduct(t, db, c, "Sapu", "15000", 3, true)
	require.NoError(t, svc.DeleteCategory(bg, c.ID))
	_, err = svc.Get(bg, p.ID)
	assert.True(t, IsNotFound(err), "products go with their category")

	err = svc.DeleteCategory(bg, c.ID)
	assert.True(t, IsNotFound(err))
}

func TestService_CategoryShowAndRename(t *testing.T) {
	svc, _, db := setupService(t)
	dapur := seedCategory(t, db, "Dapur")
	seedCategory(t, db, "Taman")
	seedProduct(t, db, dapur, "Wajan", "120000", 4, true)
	gone := seedProduct(t, db, dapur, "Panci", "90000", 2, true)
	require.NoError(t, svc.Delete(bg, gone.ID))

	detail, err := svc.GetCategory(bg, dapur.ID)
	require.NoError(t, err)
	assert.Equal(t, "Dapur", detail.Name)
	assert.Equal(t, int64(1), detail.ProductsCount)

	renamed, err := svc.RenameCategory(bg, dapur.ID, " Peralatan Dapur ")
	require.NoError(t, err)
	assert.Equal(t, "Peralatan Dapur", renamed.Name)
	assert.Equal(t, "peralatan-dapur", renamed.Slug)

	_, err = svc.RenameCategory(bg, dapur.ID, "TAMAN")
	assert.True(t, IsConflict(err))
	_, err = svc.RenameCategory(bg, dapur.ID, "")
	assert.True(t, IsValidation(err))
	_, err = svc.RenameCategory(bg, 42, "Apa Saja")
	assert.True(t, IsNotFound(err))
	_, err = svc.GetCategory(bg, 42)
	assert.True(t, IsNotFound(err))
}

func TestService_PublishesEvents(t *testing.T) {
	bus := EventBus.New()
	var got []*ProductEvent
	require.NoError(t, bus.Subscribe(TopicProductChanged, func(ev *ProductEvent) {
		got = append(got, ev)
	}))

	svc, _, db := setupService(t, WithEventBus(bus))
	cat := seedCategory(t, db, "Elektronik")

	p, err := svc.Create(bg, input("Printer", "100", "5", catID(cat)))
	require.NoError(t, err)
	_, err = svc.ToggleActive(bg, p.ID)
	require.NoError(t, err)
	dup, err := svc.Duplicate(bg, p.ID)
	require.NoError(t, err)
	require.NoError(t, svc.Delete(bg, p.ID))
	_, err = svc.Restore(bg, p.ID)
	require.NoError(t, err)

	// failed mutations publish nothing
	_, err = svc.Create(bg, ProductInput{})
	require.Error(t, err)

	actions := make([]string, 0, len(got))
	for _, ev := range got {
		actions = append(actions, ev.Action)
	}
	assert.Equal(t, []string{ActionCreated, ActionToggled, ActionDuplicated, ActionDeleted, ActionRestored}, actions)
	assert.Equal(t, dup.ID, got[2].Product.ID)
	assert.Equal(t, p.ID, got[2].SourceID)
}

func TestService_SubscriberPanicDoesNotFailMutation(t *testing.T) {
	bus := EventBus.New()
	require.NoError(t, bus.Subscribe(TopicProductChanged, func(*ProductEvent) {
		panic("boom")
	}))
	svc, _, db := setupService(t, WithEventBus(bus))
	cat := seedCategory(t, db, "Elektronik")

	_, err := svc.Create(bg, input("Printer", "100", "5", catID(cat)))
	assert.NoError(t, err)
}

func TestService_CheckStock(t *testing.T) {
	svc, _, db := setupService(t)
	cat := seedCategory(t, db, "Elektronik")
	p := seedProduct(t, db, cat, "Printer", "100", 5, true)
	off := seedProduct(t, db, cat, "Scanner", "100", 50, false)

	res, err := svc.CheckStock(bg, p.ID, 5)
	require.NoError(t, err)
	assert.True(t, res.Available)
	assert.Equal(t, StockLow, res.StockStatus)

	res, err = svc.CheckStock(bg, p.ID, 6)
	require.NoError(t, err)
	assert.False(t, res.Available)

	res, err = svc.CheckStock(bg, off.ID, 1)
	require.NoError(t, err)
	assert.False(t, res.Available, "inactive products are not sold")

	_, err = svc.CheckStock(bg, p.ID, 0)
	assert.True(t, IsValidation(err))

	_, err = svc.CheckStock(bg, 4242, 1)
	assert.True(t, IsNotFound(err))
}
