// internal/app/system/paging/paging.go
package paging

import (
	"net/http"
	"net/url"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DefaultSize is used when the client sends no usable size.
const DefaultSize = 10

// MaxSize caps a single page.
const MaxSize = 100

// MaxPage caps the page number so Skip stays within int range.
const MaxPage = 1_000_000

// DefaultSortField is the fallback sort (descending) when the client sends
// no recognized direction or field.
const DefaultSortField = "createdAt"

// Resource describes which fields a list endpoint searches and sorts on.
type Resource struct {
	SearchFields []string
	SortFields   []string
}

// Posts and Products are the searchable collections.
var (
	Posts = Resource{
		SearchFields: []string{"name", "description", "content", "state"},
		SortFields:   []string{"name", "description", "state", "createdAt", "updatedAt"},
	}
	Products = Resource{
		SearchFields: []string{"name", "description", "status"},
		SortFields:   []string{"name", "description", "status", "price", "createdAt", "updatedAt"},
	}
)

// Query is a tenant-scoped page request built from untrusted parameters.
// The same Query must drive both the count and the find so that the total
// agrees with the page returned.
type Query struct {
	TenantID      primitive.ObjectID
	Page          int
	Size          int
	Skip          int
	SearchTerm    string
	SortField     string
	SortDirection string // "asc", "desc", or "" when the default sort applies

	resource Resource
}

// Parse builds a Query from r's URL parameters.
func Parse(r *http.Request, tenantID primitive.ObjectID, res Resource) Query {
	return FromValues(r.URL.Query(), tenantID, res)
}

// FromValues builds a Query from page, size, searchTerm, sortField and
// sortDirection. The tenant always comes from the caller, never from v.
func FromValues(v url.Values, tenantID primitive.ObjectID, res Resource) Query {
	page := min(positiveInt(v.Get("page"), 1), MaxPage)
	size := positiveInt(v.Get("size"), DefaultSize)
	if size > MaxSize {
		size = MaxSize
	}

	q := Query{
		TenantID:   tenantID,
		Page:       page,
		Size:       size,
		Skip:       (page - 1) * size,
		SearchTerm: strings.TrimSpace(v.Get("searchTerm")),
		resource:   res,
	}

	dir := strings.ToLower(strings.TrimSpace(v.Get("sortDirection")))
	field := strings.TrimSpace(v.Get("sortField"))
	if (dir == "asc" || dir == "desc") && slices.Contains(res.SortFields, field) {
		q.SortField = field
		q.SortDirection = dir
	} else {
		q.SortField = DefaultSortField
	}
	return q
}

func positiveInt(s string, def int) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	if n < 1 {
		return 1
	}
	return n
}

// Filter returns the tenant filter, ANDed with a case-insensitive substring
// match over the resource's search fields when a term is present.
func (q Query) Filter() bson.M {
	tenant := bson.M{"tenant": q.TenantID}
	if q.SearchTerm == "" || len(q.resource.SearchFields) == 0 {
		return tenant
	}

	rx := primitive.Regex{Pattern: regexp.QuoteMeta(q.SearchTerm), Options: "i"}
	or := make(bson.A, 0, len(q.resource.SearchFields))
	for _, f := range q.resource.SearchFields {
		or = append(or, bson.M{f: bson.M{"$regex": rx}})
	}
	return bson.M{"$and": bson.A{tenant, bson.M{"$or": or}}}
}

// Sort returns the sort document. _id breaks ties so pages do not overlap.
func (q Query) Sort() bson.D {
	dir := -1
	if q.SortDirection == "asc" {
		dir = 1
	}
	field := q.SortField
	if field == "" {
		field = DefaultSortField
	}
	return bson.D{{Key: field, Value: dir}, {Key: "_id", Value: dir}}
}

// FindOptions applies sort, skip and limit.
func (q Query) FindOptions() *options.FindOptions {
	return options.Find().
		SetSort(q.Sort()).
		SetSkip(int64(q.Skip)).
		SetLimit(int64(q.Size))
}

// Page is the list envelope: Records is the total match count for the
// query, Results the current page.
type Page[T any] struct {
	Records int64 `json:"records"`
	Results []T   `json:"results"`
}
