package catalog

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rise_local_back_end/internal/models"
	"rise_local_back_end/internal/services"
	"rise_local_back_end/internal/testsuit"
)

func TestPublicCatalog(t *testing.T) {
	db := testsuit.InitSQLite()
	h := NewHandler(db, services.NewSearch(nil, db))
	now := time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)
	h.now = func() time.Time { return now }

	r := testsuit.Router(db)
	r.GET("/api/vendors", h.Vendors)
	r.GET("/api/vendors/:id", h.Vendor)
	r.GET("/api/restaurants", h.Restaurants)
	r.GET("/api/deals", h.Deals)
	r.GET("/api/deals/:id", h.Deal)
	r.GET("/api/search", h.Search)

	cafe := testsuit.CreateVendor(db, func(v *models.Vendor) { v.Name = "Bean There" })
	shop := testsuit.CreateVendor(db, func(v *models.Vendor) { v.Name = "Thread Shop"; v.Category = models.VendorCategoryRetail })
	ended := now.Add(-time.Hour)
	live := testsuit.CreateDeal(db, cafe.ID, func(d *models.Deal) { d.IsPassLocked = true })
	testsuit.CreateDeal(db, cafe.ID, func(d *models.Deal) { d.Status = models.DealStatusDraft })
	testsuit.CreateDeal(db, shop.ID, func(d *models.Deal) { d.EndsAt = &ended })

	w := testsuit.Do(r, http.MethodGet, "/api/restaurants", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, testsuit.Decode(w)["count"])

	w = testsuit.Do(r, http.MethodGet, "/api/vendors", "", nil)
	assert.EqualValues(t, 2, testsuit.Decode(w)["count"])

	w = testsuit.Do(r, http.MethodGet, "/api/deals", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := testsuit.Decode(w)
	require.EqualValues(t, 1, body["count"])
	card := body["deals"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, live.ID, card["id"])
	assert.Equal(t, true, card["locked"])
	assert.Equal(t, "BOGO", card["badge"])

	member := testsuit.CreateUser(db, func(u *models.User) { u.IsPassMember = true })
	w = testsuit.Do(r, http.MethodGet, "/api/deals/"+live.ID, member.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, testsuit.Decode(w)["deal"].(map[string]interface{})["locked"])

	w = testsuit.Do(r, http.MethodGet, "/api/vendors/"+cafe.ID, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, testsuit.Decode(w)["deals"], 1)

	w = testsuit.Do(r, http.MethodGet, "/api/search?q=thread", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, testsuit.Decode(w)["count"])

	w = testsuit.Do(r, http.MethodGet, "/api/deals/missing", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
