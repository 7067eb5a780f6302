package crawler

import (
	"testing"

	"github.com/mouguu/reddit-crawler/log"
	"github.com/mouguu/reddit-crawler/strategy"
)

func names(strategies []strategy.Strategy) []string {
	out := make([]string, len(strategies))
	for i, s := range strategies {
		out[i] = s.Name()
	}
	return out
}

func TestBuildStrategies_Orderings(t *testing.T) {
	kw := []string{"generics"}
	tests := []struct {
		profile  string
		keywords []string
		want     []string
	}{
		{
			profile: ProfileFull,
			want: []string{
				"api_backed", "time_range_top", "paginated_hot", "paginated_new",
				"paginated_rising", "paginated_best", "deep_historical",
			},
		},
		{
			profile:  ProfileFull,
			keywords: kw,
			want: []string{
				"api_backed", "time_range_top", "paginated_hot", "paginated_new",
				"paginated_rising", "paginated_best", "deep_historical", "keyword_search",
			},
		},
		{
			profile:  ProfileRecency,
			keywords: kw,
			want: []string{
				"deep_historical", "time_range_top", "paginated_new",
				"paginated_rising", "keyword_search",
			},
		},
		{
			profile: ProfilePopularity,
			want: []string{
				"paginated_hot", "paginated_best", "time_range_top", "deep_historical",
			},
		},
		{
			profile:  ProfileSearch,
			keywords: kw,
			want: []string{
				"keyword_search", "time_range_top", "paginated_hot",
				"paginated_new", "deep_historical",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.profile, func(t *testing.T) {
			got, err := BuildStrategies(tt.profile, nil, nil, tt.keywords, log.NewNop())
			if err != nil {
				t.Fatalf("build: %v", err)
			}
			gotNames := names(got)
			if len(gotNames) != len(tt.want) {
				t.Fatalf("strategies = %v, want %v", gotNames, tt.want)
			}
			for i := range tt.want {
				if gotNames[i] != tt.want[i] {
					t.Errorf("strategies[%d] = %q, want %q", i, gotNames[i], tt.want[i])
				}
			}
		})
	}
}

func TestBuildStrategies_EmptyProfileIsFull(t *testing.T) {
	got, err := BuildStrategies("", nil, nil, nil, log.NewNop())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(got) != 7 || got[0].Name() != "api_backed" {
		t.Errorf("strategies = %v", names(got))
	}
}

func TestBuildStrategies_SearchRequiresKeywords(t *testing.T) {
	if _, err := BuildStrategies(ProfileSearch, nil, nil, nil, log.NewNop()); err == nil {
		t.Fatal("expected an error for the search profile without keywords")
	}
}

func TestBuildStrategies_UnknownProfile(t *testing.T) {
	if _, err := BuildStrategies("aggressive", nil, nil, nil, log.NewNop()); err == nil {
		t.Fatal("expected an error for an unknown profile")
	}
}
