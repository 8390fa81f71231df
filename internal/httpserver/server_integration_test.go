package httpserver_test

import (
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"

	"lebem.uz/storefront/internal/middleware"
	"lebem.uz/storefront/internal/testutil"
)

type response struct {
	*http.Response
	body []byte
}

func (r response) doc(t *testing.T) *goquery.Document {
	t.Helper()
	return testutil.ParseHTML(t, r.body)
}

func do(t *testing.T, client *http.Client, req *http.Request) response {
	t.Helper()
	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return response{Response: resp, body: body}
}

func get(t *testing.T, client *http.Client, rawURL string, htmx bool) response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, rawURL, nil)
	require.NoError(t, err)
	if htmx {
		req.Header.Set(middleware.HeaderHXRequest, "true")
	}
	return do(t, client, req)
}

func post(t *testing.T, client *http.Client, rawURL string, form url.Values, token string) response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, rawURL, strings.NewReader(form.Encode()))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set(middleware.HeaderHXRequest, "true")
	if token != "" {
		req.Header.Set(middleware.CSRFHeaderName, token)
	}
	return do(t, client, req)
}

func TestHomePageRendersCatalogue(t *testing.T) {
	t.Parallel()
	backend := testutil.NewBackend(t)
	ts := testutil.NewServer(t, backend, testutil.WithGAMeasurementID("G-TEST"))
	client := testutil.NewClient(t)

	res := get(t, client, ts.URL+"/", false)
	require.Equal(t, http.StatusOK, res.StatusCode)
	doc := res.doc(t)

	require.Equal(t, "Lebem | Mebel do'koni", doc.Find("title").First().Text())
	require.Equal(t, "uz", doc.Find("html").AttrOr("lang", ""))
	require.Equal(t, 2, doc.Find("#categories-container .category-card").Length())
	require.Contains(t, doc.Find("#featured-products-container").Text(), "Alfa divan")
	require.True(t, doc.Find("#loading-spinner").HasClass("d-none"))
	require.Empty(t, strings.TrimSpace(doc.Find("#alerts").Text()))
	require.Equal(t, 2, doc.Find(".dropdown-menu .dropdown-item").Length())
	require.Contains(t, doc.Find("body").AttrOr("hx-headers", ""), middleware.CSRFHeaderName)
	require.Contains(t, doc.Find(`script[type="application/ld+json"]`).First().Text(), `"Organization"`)
	require.Equal(t, 1, doc.Find(`script[src*="G-TEST"]`).Length())
	require.NotEmpty(t, testutil.CSRFToken(t, client, ts.URL))
}

func TestProductFragmentPushesURL(t *testing.T) {
	t.Parallel()
	backend := testutil.NewBackend(t)
	ts := testutil.NewServer(t, backend)
	client := testutil.NewClient(t)

	res := get(t, client, ts.URL+"/pages/product/alfa?lang=en", true)
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Equal(t, "/product/alfa", res.Header.Get(middleware.HeaderHXPushURL))
	doc := res.doc(t)
	require.Equal(t, "Alfa divan | Lebem | Furniture store", strings.TrimSpace(doc.Find("title").Text()))
	require.Equal(t, "Alfa divan", doc.Find("#product-name").Text())
	require.Equal(t, "1,200,000 so'm", doc.Find("#product-price").Text())
	require.Equal(t, "1,500,000 so'm", doc.Find("#product-old-price").Text())
	require.Equal(t, "<strong>Qulay</strong> divan", strings.TrimSpace(mustHTML(t, doc.Find("#product-description p"))))
	require.Equal(t, "2", doc.Find("#reviews-count").Text())
	require.Contains(t, doc.Find("#reviews-container").Text(), "Zo'r divan")
	require.Equal(t, "alfa", doc.Find("#review-product").AttrOr("value", ""))
	require.Equal(t, "5", doc.Find("#review-rating").AttrOr("value", ""))
	require.Equal(t, 0, doc.Find("#alerts").Length())
}

func mustHTML(t *testing.T, sel *goquery.Selection) string {
	t.Helper()
	h, err := sel.Html()
	require.NoError(t, err)
	return h
}

func TestFullProductPageHasStructuredData(t *testing.T) {
	t.Parallel()
	backend := testutil.NewBackend(t)
	ts := testutil.NewServer(t, backend)

	res := get(t, testutil.NewClient(t), ts.URL+"/product/alfa", false)
	require.Equal(t, http.StatusOK, res.StatusCode)
	doc := res.doc(t)
	var scripts []string
	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, s *goquery.Selection) {
		scripts = append(scripts, s.Text())
	})
	joined := strings.Join(scripts, "\n")
	require.Contains(t, joined, `"BreadcrumbList"`)
	require.Contains(t, joined, `"Product"`)
	require.Contains(t, joined, `"priceCurrency":"UZS"`)
	require.Contains(t, doc.Find(`link[rel="canonical"]`).AttrOr("href", ""), "/product/alfa")
	require.Equal(t, 3, doc.Find(`link[rel="alternate"]`).Length())
}

func TestMissingProductIsNotFound(t *testing.T) {
	t.Parallel()
	backend := testutil.NewBackend(t)
	ts := testutil.NewServer(t, backend)

	res := get(t, testutil.NewClient(t), ts.URL+"/product/yoq", false)
	require.Equal(t, http.StatusNotFound, res.StatusCode)
	require.Contains(t, res.doc(t).Find("#alerts .alert-danger").Text(), "Mahsulot ma'lumotlarini yuklashda xatolik yuz berdi")
}

func TestLoadFailureSurfacesAlert(t *testing.T) {
	t.Parallel()
	backend := testutil.NewBackend(t)
	backend.SetFail("/api/products/products/featured/", http.StatusInternalServerError)
	ts := testutil.NewServer(t, backend)

	res := get(t, testutil.NewClient(t), ts.URL+"/pages/home", true)
	require.Equal(t, http.StatusOK, res.StatusCode)
	doc := res.doc(t)
	oob := doc.Find(`#alerts[hx-swap-oob="innerHTML"]`)
	require.Equal(t, 1, oob.Length())
	require.Contains(t, oob.Text(), "Sahifani yuklashda xatolik yuz berdi")
	require.Equal(t, 1, doc.Find("#featured-products-container").Length())
}

func TestCategoryFragmentAndSorting(t *testing.T) {
	t.Parallel()
	backend := testutil.NewBackend(t)
	ts := testutil.NewServer(t, backend)
	client := testutil.NewClient(t)

	res := get(t, client, ts.URL+"/pages/category/divanlar?ordering=-price", true)
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Equal(t, "/category/divanlar?ordering=-price", res.Header.Get(middleware.HeaderHXPushURL))
	doc := res.doc(t)
	require.Equal(t, "Divanlar Mahsulotlari", doc.Find("#category-title").Text())
	require.Equal(t, "2 ta mahsulot topildi", doc.Find("#products-count").Text())
	require.Equal(t, "/pages/category/divanlar/products", doc.Find("#sort-select").AttrOr("hx-get", ""))

	res = get(t, client, ts.URL+"/pages/category/divanlar/products?ordering=price", true)
	require.Equal(t, http.StatusOK, res.StatusCode)
	doc = res.doc(t)
	require.Equal(t, 2, doc.Find(".product-card").Length())
	require.Equal(t, "true", doc.Find("#products-count").AttrOr("hx-swap-oob", ""))
	require.True(t, doc.Find("#no-products").HasClass("d-none"))
	backend.Snapshot(func(b *testutil.Backend) {
		require.Equal(t, []string{"-price", "price"}, b.Orderings)
	})

	res = get(t, client, ts.URL+"/pages/category/stollar", true)
	doc = res.doc(t)
	require.Equal(t, "0 ta mahsulot topildi", doc.Find("#products-count").Text())
	require.False(t, doc.Find("#no-products").HasClass("d-none"))
}

func TestSortFailureKeepsGrid(t *testing.T) {
	t.Parallel()
	backend := testutil.NewBackend(t)
	backend.SetFail("/api/products/categories/{slug}/products/", http.StatusBadGateway)
	ts := testutil.NewServer(t, backend)

	res := get(t, testutil.NewClient(t), ts.URL+"/pages/category/divanlar/products?ordering=price", true)
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Equal(t, "none", res.Header.Get(middleware.HeaderHXReswap))
	require.Contains(t, res.doc(t).Find("#alerts").Text(), "Mahsulotlarni saralashda xatolik yuz berdi")
}

func TestRatingWidgetTransitions(t *testing.T) {
	t.Parallel()
	ts := testutil.NewServer(t, testutil.NewBackend(t))
	client := testutil.NewClient(t)

	res := get(t, client, ts.URL+"/widgets/rating?event=click&index=3&committed=5", true)
	require.Equal(t, http.StatusOK, res.StatusCode)
	doc := res.doc(t)
	require.Equal(t, "3", doc.Find("#review-rating").AttrOr("value", ""))
	require.Equal(t, 3, doc.Find("i.fas.fa-star").Length())

	res = get(t, client, ts.URL+"/widgets/rating?event=hover&index=2&committed=4", true)
	doc = res.doc(t)
	require.Equal(t, "4", doc.Find("#review-rating").AttrOr("value", ""))
	require.Equal(t, 2, doc.Find("i.fas.fa-star").Length())

	res = get(t, client, ts.URL+"/widgets/rating?event=leave&index=0&committed=4", true)
	require.Equal(t, 4, res.doc(t).Find("i.fas.fa-star").Length())

	res = get(t, client, ts.URL+"/widgets/rating?event=wiggle", true)
	require.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestReviewSubmission(t *testing.T) {
	t.Parallel()
	backend := testutil.NewBackend(t)
	ts := testutil.NewServer(t, backend)
	client := testutil.NewClient(t)
	get(t, client, ts.URL+"/product/alfa", false)
	token := testutil.CSRFToken(t, client, ts.URL)
	require.NotEmpty(t, token)

	form := url.Values{"product_slug": {"alfa"}, "name": {"Aziz"}, "phone": {"90123"}, "rating": {"4"}}
	res := post(t, client, ts.URL+"/forms/review", form, "")
	require.Equal(t, http.StatusForbidden, res.StatusCode)

	res = post(t, client, ts.URL+"/forms/review", form, token)
	require.Equal(t, http.StatusOK, res.StatusCode)
	doc := res.doc(t)
	require.True(t, doc.Find("#review-phone").HasClass("is-invalid"))
	require.True(t, doc.Find("#review-comment").HasClass("is-invalid"))
	require.Equal(t, "Aziz", doc.Find("#review-name").AttrOr("value", ""))
	require.Equal(t, "4", doc.Find("#review-rating").AttrOr("value", ""))
	backend.Snapshot(func(b *testutil.Backend) { require.Empty(t, b.PostedReviews) })

	form.Set("phone", "90 123 45 67")
	form.Set("comment", "Juda qulay")
	res = post(t, client, ts.URL+"/forms/review", form, token)
	require.Equal(t, http.StatusOK, res.StatusCode)
	doc = res.doc(t)
	require.Contains(t, doc.Find("#alerts").Text(), "Sharhingiz muvaffaqiyatli yuborildi!")
	require.Equal(t, "5", doc.Find("#review-form #review-rating").AttrOr("value", ""))
	require.Empty(t, doc.Find("#review-name").AttrOr("value", ""))
	require.Equal(t, "3", doc.Find(`#reviews-count[hx-swap-oob]`).Text())
	require.Contains(t, doc.Find(`#reviews-container[hx-swap-oob]`).Text(), "Juda qulay")
	_, disabled := doc.Find("#review-submit").Attr("disabled")
	require.False(t, disabled)
	backend.Snapshot(func(b *testutil.Backend) {
		require.Len(t, b.PostedReviews, 1)
		require.Equal(t, "+998 90 123 45 67", b.PostedReviews[0].Phone)
		require.Equal(t, 4, b.PostedReviews[0].Rating)
		require.Equal(t, testutil.BackendCSRFToken, b.ReviewHeaders[0].Get("X-CSRFToken"))
	})
}

func TestContactSubmission(t *testing.T) {
	t.Parallel()
	backend := testutil.NewBackend(t)
	ts := testutil.NewServer(t, backend)
	client := testutil.NewClient(t)

	res := get(t, client, ts.URL+"/contact?lang=ru", false)
	require.Equal(t, http.StatusOK, res.StatusCode)
	doc := res.doc(t)
	require.Equal(t, "ru", doc.Find("html").AttrOr("lang", ""))
	require.Equal(t, "general", doc.Find("#contact-subject option[selected]").AttrOr("value", ""))
	token := testutil.CSRFToken(t, client, ts.URL)

	form := url.Values{"name": {"Olga"}, "phone": {"+998901234567"}, "email": {"olga@example.com"}, "subject": {"order"}, "message": {"Salom"}}
	res = post(t, client, ts.URL+"/forms/contact", form, token)
	require.Equal(t, http.StatusOK, res.StatusCode)
	doc = res.doc(t)
	require.Equal(t, 1, doc.Find("#contact-form").Length())
	require.Contains(t, doc.Find("#alerts .alert-success").Text(), "Ваше сообщение успешно отправлено")
	backend.Snapshot(func(b *testutil.Backend) {
		require.Len(t, b.PostedContacts, 1)
		require.Equal(t, "order", b.PostedContacts[0].Subject)
	})

	backend.SetFail("/api/reviews/contact/", http.StatusInternalServerError)
	res = post(t, client, ts.URL+"/forms/contact", form, token)
	doc = res.doc(t)
	require.Equal(t, 1, doc.Find("#alerts .alert-danger").Length())
	require.Equal(t, "Salom", doc.Find("#contact-message").Text())
}

func TestSearch(t *testing.T) {
	t.Parallel()
	backend := testutil.NewBackend(t)
	ts := testutil.NewServer(t, backend, testutil.WithSearchDelay(20*time.Millisecond))
	client := testutil.NewClient(t)
	get(t, client, ts.URL+"/", false)

	res := get(t, client, ts.URL+"/search?q=al", true)
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Contains(t, string(res.body), "Kamida 3 ta belgi kiriting")

	res = get(t, client, ts.URL+"/search?q=alfa", true)
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Contains(t, res.doc(t).Find(".search-results").Text(), "Alfa divan")
	backend.Snapshot(func(b *testutil.Backend) { require.Equal(t, []string{"alfa"}, b.Queries) })
}

func TestSearchSupersededQueryAnswersNoContent(t *testing.T) {
	t.Parallel()
	backend := testutil.NewBackend(t)
	ts := testutil.NewServer(t, backend, testutil.WithSearchDelay(300*time.Millisecond))
	client := testutil.NewClient(t)
	get(t, client, ts.URL+"/", false)

	var wg sync.WaitGroup
	first := make(chan int, 1)
	wg.Add(1)
	go func() {
		defer wg.Done()
		req, _ := http.NewRequest(http.MethodGet, ts.URL+"/search?q=div", nil)
		req.Header.Set(middleware.HeaderHXRequest, "true")
		resp, err := client.Do(req)
		if err != nil {
			first <- 0
			return
		}
		resp.Body.Close()
		first <- resp.StatusCode
	}()
	time.Sleep(100 * time.Millisecond)
	res := get(t, client, ts.URL+"/search?q=divan", true)
	wg.Wait()

	require.Equal(t, http.StatusNoContent, <-first)
	require.Equal(t, http.StatusOK, res.StatusCode)
	backend.Snapshot(func(b *testutil.Backend) { require.Equal(t, []string{"divan"}, b.Queries) })
}

func TestUnknownRouteAndHealth(t *testing.T) {
	t.Parallel()
	ts := testutil.NewServer(t, testutil.NewBackend(t))
	client := testutil.NewClient(t)

	res := get(t, client, ts.URL+"/nowhere", false)
	require.Equal(t, http.StatusNotFound, res.StatusCode)
	require.Contains(t, res.doc(t).Find("#alerts").Text(), "Sahifa topilmadi")

	res = get(t, client, ts.URL+"/healthz", false)
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Equal(t, "ok", string(res.body))

	res = get(t, client, ts.URL+"/assets/css/site.css", false)
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.NotEmpty(t, res.Header.Get("ETag"))
}

func TestOverlappingFullPagesBothRender(t *testing.T) {
	t.Parallel()
	backend := testutil.NewBackend(t)
	backend.SetDelay("/api/products/products/{slug}/", 400*time.Millisecond)
	ts := testutil.NewServer(t, backend)
	client := testutil.NewClient(t)
	get(t, client, ts.URL+"/", false)

	var wg sync.WaitGroup
	type outcome struct {
		status int
		body   []byte
	}
	first := make(chan outcome, 1)
	wg.Add(1)
	go func() {
		defer wg.Done()
		resp, err := client.Get(ts.URL + "/product/alfa")
		if err != nil {
			first <- outcome{}
			return
		}
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		first <- outcome{status: resp.StatusCode, body: body}
	}()
	time.Sleep(100 * time.Millisecond)
	second := get(t, client, ts.URL+"/category/divanlar", false)
	wg.Wait()

	require.Equal(t, http.StatusOK, second.StatusCode)
	require.Equal(t, "Divanlar Mahsulotlari", second.doc(t).Find("#category-title").Text())

	got := <-first
	require.Equal(t, http.StatusOK, got.status)
	require.Equal(t, "Alfa divan", testutil.ParseHTML(t, got.body).Find("#product-name").Text())
}

func TestOverlappingFragmentsLastStartedWins(t *testing.T) {
	t.Parallel()
	backend := testutil.NewBackend(t)
	backend.SetDelay("/api/products/products/{slug}/", 400*time.Millisecond)
	ts := testutil.NewServer(t, backend)
	client := testutil.NewClient(t)
	get(t, client, ts.URL+"/", false)

	var wg sync.WaitGroup
	first := make(chan int, 1)
	wg.Add(1)
	go func() {
		defer wg.Done()
		req, _ := http.NewRequest(http.MethodGet, ts.URL+"/pages/product/alfa", nil)
		req.Header.Set(middleware.HeaderHXRequest, "true")
		resp, err := client.Do(req)
		if err != nil {
			first <- 0
			return
		}
		resp.Body.Close()
		first <- resp.StatusCode
	}()
	time.Sleep(100 * time.Millisecond)
	second := get(t, client, ts.URL+"/pages/category/divanlar", true)
	wg.Wait()

	require.Equal(t, http.StatusOK, second.StatusCode)
	require.Equal(t, http.StatusNoContent, <-first)
}
