package cache

import (
	"testing"
	"time"
)

func TestTTLTable_Resolve(t *testing.T) {
	table := TTLTable{
		TypeSettings: 10 * time.Minute,
		TypeSearch:   time.Minute,
	}

	tests := []struct {
		name     string
		override time.Duration
		typ      Type
		want     time.Duration
	}{
		{
			name:     "explicit override wins over table entry",
			override: 30 * time.Second,
			typ:      TypeSettings,
			want:     30 * time.Second,
		},
		{
			name: "table entry used without override",
			typ:  TypeSearch,
			want: time.Minute,
		},
		{
			name: "unknown type falls back to default",
			typ:  Type("unmapped"),
			want: DefaultTTL,
		},
		{
			name: "no type falls back to default",
			want: DefaultTTL,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := table.Resolve(tt.override, tt.typ); got != tt.want {
				t.Errorf("Resolve() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDefaultTTLTable_CoversAllTypes(t *testing.T) {
	table := DefaultTTLTable()

	types := []Type{
		TypeSettings, TypeProduct, TypeProductList, TypeCategory,
		TypeReview, TypeSearch, TypeAnalytics, TypeNotification,
		TypeDiscount,
	}
	for _, typ := range types {
		if _, ok := table[typ]; !ok {
			t.Errorf("default table missing entry for %s", typ)
		}
	}
}
