package format

import (
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPriceEnglish(t *testing.T) {
	require.Equal(t, "150,000 so'm", Price(150000, "en"))
	require.Equal(t, "0 so'm", Price(0, "en"))
}

func TestPriceKeepsCurrencyWordPerLanguage(t *testing.T) {
	require.True(t, strings.HasSuffix(Price(1000, "uz"), " so'm"))
	require.True(t, strings.HasSuffix(Price(1000, "ru"), " сум"))
	require.True(t, strings.HasSuffix(Price(1000, "de"), " so'm"))
}

func TestPriceIdempotentOnNumericPart(t *testing.T) {
	for _, lang := range []string{"uz", "ru", "en"} {
		for _, amount := range []float64{5, 999, 1000, 150000, 2499000, 1000000000} {
			out := Price(amount, lang)
			n, err := strconv.ParseFloat(asciiDigits(out), 64)
			require.NoError(t, err, out)
			require.Equal(t, out, Price(n, lang), lang)
		}
	}
}

func asciiDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func TestDateLongForm(t *testing.T) {
	ts := time.Date(2026, time.October, 18, 10, 0, 0, 0, time.UTC)
	require.Equal(t, "18-oktabr, 2026", Date(ts, "uz"))
	require.Equal(t, "18 октября 2026 г.", Date(ts, "ru-RU"))
	require.Equal(t, "October 18, 2026", Date(ts, "en"))
	require.Equal(t, "18-oktabr, 2026", Date(ts, "fr"))
	require.Empty(t, Date(time.Time{}, "uz"))
}

func TestDateUsesTashkentTime(t *testing.T) {
	ts := time.Date(2026, time.December, 31, 20, 30, 0, 0, time.UTC)
	require.Equal(t, "January 1, 2027", Date(ts, "en"))
}

func TestPhoneFullPattern(t *testing.T) {
	cases := []string{
		"901234567",
		"+998901234567",
		"998 90 123 45 67",
		"(90) 123-45-67",
		"90123456789999",
	}
	for _, in := range cases {
		require.Equal(t, "+998 90 123 45 67", Phone(in), in)
		require.True(t, IsCompletePhone(in), in)
	}
}

func TestPhoneTruncatedPrefixes(t *testing.T) {
	full := "+998 90 123 45 67"
	digits := "901234567"
	for n := 1; n < len(digits); n++ {
		out := Phone(digits[:n])
		require.True(t, strings.HasPrefix(full, out), "%d digits: %q", n, out)
		require.Equal(t, digits[:n], asciiDigits(strings.TrimPrefix(out, "+998")))
		require.False(t, IsCompletePhone(digits[:n]))
	}
	require.Equal(t, "+998 9", Phone("9"))
	require.Equal(t, "+998 90 1", Phone("901"))
	require.Equal(t, "+998 90 123 4", Phone("9012345"))
	require.Empty(t, Phone("+998"))
	require.Empty(t, Phone("abc"))
}

func TestPhoneLocalNumbersStartingWithCountryCode(t *testing.T) {
	cases := map[string]string{
		"998123456":    "+998 99 812 34 56",
		"9981234567":   "+998 99 812 34 56",
		"99812345678":  "+998 99 812 34 56",
		"99 812 34 56": "+998 99 812 34 56",
		"998":          "+998 99 8",
		"+998 99 8":    "+998 99 8",
		"998998123456": "+998 99 812 34 56",
	}
	for in, want := range cases {
		require.Equal(t, want, Phone(in), in)
	}
	require.True(t, IsCompletePhone("99 812 34 56"))
	require.True(t, IsCompletePhone("9981234567"))
}

func TestPhoneIsStableOnItsOwnOutput(t *testing.T) {
	for _, in := range []string{"9", "9012", "901234567", "998", "998123456"} {
		once := Phone(in)
		require.Equal(t, once, Phone(once))
	}
}

func TestStarsAlwaysFive(t *testing.T) {
	for r := 0.0; r <= 5.0; r += 0.1 {
		s := Stars(r)
		require.Equal(t, MaxStars, s.Total(), "rating %v", r)
	}
}

func TestStarsSplit(t *testing.T) {
	cases := []struct {
		rating float64
		want   StarCounts
	}{
		{0, StarCounts{0, 0, 5}},
		{1, StarCounts{1, 0, 4}},
		{3.5, StarCounts{3, 1, 1}},
		{4.2, StarCounts{4, 1, 0}},
		{4.99, StarCounts{4, 1, 0}},
		{5, StarCounts{5, 0, 0}},
		{7, StarCounts{5, 0, 0}},
		{-2, StarCounts{0, 0, 5}},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, Stars(tc.rating), "rating %v", tc.rating)
	}
}
