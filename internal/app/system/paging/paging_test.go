package paging

import (
	"net/http/httptest"
	"net/url"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestFromValues_Skip(t *testing.T) {
	tenant := primitive.NewObjectID()

	tests := []struct {
		name     string
		page     string
		size     string
		wantPage int
		wantSize int
		wantSkip int
	}{
		{"first page", "1", "5", 1, 5, 0},
		{"third page", "3", "5", 3, 5, 10},
		{"missing both", "", "", 1, DefaultSize, 0},
		{"zero page", "0", "5", 1, 5, 0},
		{"negative size", "2", "-4", 2, 1, 1},
		{"garbage", "abc", "x", 1, DefaultSize, 0},
		{"oversized", "2", "1000", 2, MaxSize, MaxSize},
		{"max int page", "9223372036854775807", "100", MaxPage, 100, (MaxPage - 1) * 100},
		{"page past int range", "99999999999999999999", "10", 1, 10, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := url.Values{}
			v.Set("page", tt.page)
			v.Set("size", tt.size)
			q := FromValues(v, tenant, Posts)

			if q.Page != tt.wantPage || q.Size != tt.wantSize || q.Skip != tt.wantSkip {
				t.Errorf("page/size/skip = %d/%d/%d, want %d/%d/%d",
					q.Page, q.Size, q.Skip, tt.wantPage, tt.wantSize, tt.wantSkip)
			}
		})
	}
}

func TestSort(t *testing.T) {
	tenant := primitive.NewObjectID()

	tests := []struct {
		name      string
		field     string
		direction string
		want      bson.D
	}{
		{"asc", "name", "asc", bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}}},
		{"desc", "name", "desc", bson.D{{Key: "name", Value: -1}, {Key: "_id", Value: -1}}},
		{"upper case direction", "state", "ASC", bson.D{{Key: "state", Value: 1}, {Key: "_id", Value: 1}}},
		{"missing direction", "name", "", bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}},
		{"unknown direction", "name", "sideways", bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}},
		{"field not sortable", "password", "asc", bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := url.Values{}
			v.Set("sortField", tt.field)
			v.Set("sortDirection", tt.direction)
			got := FromValues(v, tenant, Posts).Sort()

			if len(got) != len(tt.want) {
				t.Fatalf("Sort() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i].Key != tt.want[i].Key || got[i].Value != tt.want[i].Value {
					t.Errorf("Sort()[%d] = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestFilter_EmptySearchIsTenantOnly(t *testing.T) {
	tenant := primitive.NewObjectID()
	q := FromValues(url.Values{"searchTerm": {"   "}}, tenant, Posts)

	f := q.Filter()
	if len(f) != 1 || f["tenant"] != tenant {
		t.Errorf("Filter() = %v, want tenant only", f)
	}
}

func TestFilter_SearchFieldsPerResource(t *testing.T) {
	tenant := primitive.NewObjectID()

	tests := []struct {
		name   string
		res    Resource
		fields []string
	}{
		{"posts", Posts, []string{"name", "description", "content", "state"}},
		{"products", Products, []string{"name", "description", "status"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := FromValues(url.Values{"searchTerm": {"a.b"}}, tenant, tt.res)
			f := q.Filter()

			and, ok := f["$and"].(bson.A)
			if !ok || len(and) != 2 {
				t.Fatalf("Filter() = %v, want $and of two clauses", f)
			}
			if and[0].(bson.M)["tenant"] != tenant {
				t.Errorf("first clause must be the tenant filter, got %v", and[0])
			}
			or := and[1].(bson.M)["$or"].(bson.A)
			if len(or) != len(tt.fields) {
				t.Fatalf("$or has %d clauses, want %d", len(or), len(tt.fields))
			}
			for i, field := range tt.fields {
				clause := or[i].(bson.M)[field].(bson.M)
				rx := clause["$regex"].(primitive.Regex)
				if rx.Pattern != `a\.b` || rx.Options != "i" {
					t.Errorf("%s regex = %+v, want quoted, case-insensitive", field, rx)
				}
			}
		})
	}
}

func TestFindOptions(t *testing.T) {
	req := httptest.NewRequest("GET", "/post?page=3&size=5", nil)
	q := Parse(req, primitive.NewObjectID(), Posts)
	opts := q.FindOptions()

	if opts.Skip == nil || *opts.Skip != 10 {
		t.Errorf("skip = %v, want 10", opts.Skip)
	}
	if opts.Limit == nil || *opts.Limit != 5 {
		t.Errorf("limit = %v, want 5", opts.Limit)
	}
}
