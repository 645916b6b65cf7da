// Package dbtest provides an in-memory db.Collection for handler tests. It
// covers the query and update operators the handlers actually issue; anything
// else is a non-match or a no-op.
package dbtest

import (
	"context"
	"reflect"
	"strings"
	"sync"

	"pawmart/db"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// NewStore returns a Store where every collection is a fresh in-memory one.
func NewStore() *db.Store {
	return &db.Store{
		Users:         &Collection{},
		Pets:          &Collection{},
		Products:      &Collection{},
		Carts:         &Collection{},
		CartItems:     &Collection{},
		Orders:        &Collection{},
		Adoptions:     &Collection{},
		Consultations: &Collection{},
	}
}

// Collection stores documents as bson maps and evaluates filters and update
// operators against them.
type Collection struct {
	mu   sync.Mutex
	docs []bson.M
}

func toDoc(v interface{}) bson.M {
	data, err := bson.Marshal(v)
	if err != nil {
		panic(err)
	}
	var m bson.M
	if err := bson.Unmarshal(data, &m); err != nil {
		panic(err)
	}
	return m
}

func copyDoc(doc bson.M) bson.M {
	out := make(bson.M, len(doc))
	for k, v := range doc {
		out[k] = v
	}
	return out
}

func num(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func equal(a, b interface{}) bool {
	if fa, ok := num(a); ok {
		fb, ok2 := num(b)
		return ok2 && fa == fb
	}
	return reflect.DeepEqual(a, b)
}

func asList(v interface{}) []interface{} {
	switch t := v.(type) {
	case bson.A:
		return []interface{}(t)
	case []interface{}:
		return t
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice {
		out := make([]interface{}, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			out[i] = rv.Index(i).Interface()
		}
		return out
	}
	return nil
}

// lookup resolves a possibly dotted path, fanning out over arrays the way
// Mongo does for paths like "items.productid".
func lookup(v interface{}, path string) []interface{} {
	return lookupParts(v, strings.Split(path, "."))
}

func lookupParts(v interface{}, parts []string) []interface{} {
	if len(parts) == 0 {
		return []interface{}{v}
	}
	switch t := v.(type) {
	case bson.M:
		next, ok := t[parts[0]]
		if !ok {
			return nil
		}
		return lookupParts(next, parts[1:])
	case bson.A:
		var out []interface{}
		for _, e := range t {
			out = append(out, lookupParts(e, parts)...)
		}
		return out
	case []interface{}:
		var out []interface{}
		for _, e := range t {
			out = append(out, lookupParts(e, parts)...)
		}
		return out
	}
	return nil
}

func containsEqual(vals []interface{}, want interface{}) bool {
	for _, v := range vals {
		if equal(v, want) {
			return true
		}
	}
	return false
}

func matches(doc bson.M, filter bson.M) bool {
	for key, want := range filter {
		if key == "$or" {
			alts, _ := want.([]bson.M)
			ok := false
			for _, alt := range alts {
				if matches(doc, alt) {
					ok = true
					break
				}
			}
			if !ok {
				return false
			}
			continue
		}
		vals := lookup(doc, key)
		if cond, isM := want.(bson.M); isM {
			if !matchOps(vals, cond) {
				return false
			}
			continue
		}
		if !containsEqual(vals, want) {
			return false
		}
	}
	return true
}

func matchOps(vals []interface{}, cond bson.M) bool {
	for op, arg := range cond {
		switch op {
		case "$gte":
			want, _ := num(arg)
			ok := false
			for _, v := range vals {
				if f, isNum := num(v); isNum && f >= want {
					ok = true
					break
				}
			}
			if !ok {
				return false
			}
		case "$in":
			ok := false
			for _, allowed := range asList(arg) {
				if containsEqual(vals, allowed) {
					ok = true
					break
				}
			}
			if !ok {
				return false
			}
		case "$nin":
			for _, banned := range asList(arg) {
				if containsEqual(vals, banned) {
					return false
				}
			}
		default:
			return false
		}
	}
	return true
}

func applyUpdate(doc bson.M, update bson.M, inserting bool) {
	for op, arg := range update {
		fields, _ := arg.(bson.M)
		switch op {
		case "$set":
			for k, v := range fields {
				doc[k] = v
			}
		case "$setOnInsert":
			if inserting {
				for k, v := range fields {
					doc[k] = v
				}
			}
		case "$inc":
			for k, v := range fields {
				cur, _ := num(doc[k])
				delta, _ := num(v)
				sum := cur + delta
				if sum == float64(int64(sum)) {
					doc[k] = int64(sum)
				} else {
					doc[k] = sum
				}
			}
		case "$unset":
			for k := range fields {
				delete(doc, k)
			}
		case "$pull":
			for k, v := range fields {
				var kept bson.A
				for _, e := range asList(doc[k]) {
					if !equal(e, v) {
						kept = append(kept, e)
					}
				}
				doc[k] = kept
			}
		case "$addToSet":
			for k, v := range fields {
				list := asList(doc[k])
				if !containsEqual(list, v) {
					list = append(list, v)
				}
				doc[k] = bson.A(list)
			}
		}
	}
}

func noDocument() *mongo.SingleResult {
	return mongo.NewSingleResultFromDocument(bson.D{}, mongo.ErrNoDocuments, nil)
}

func (c *Collection) FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) *mongo.SingleResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	f, _ := filter.(bson.M)
	for _, doc := range c.docs {
		if matches(doc, f) {
			return mongo.NewSingleResultFromDocument(copyDoc(doc), nil, nil)
		}
	}
	return noDocument()
}

func (c *Collection) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) (*mongo.Cursor, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	f, _ := filter.(bson.M)
	out := make([]interface{}, 0, len(c.docs))
	for _, doc := range c.docs {
		if matches(doc, f) {
			out = append(out, copyDoc(doc))
		}
	}
	return mongo.NewCursorFromDocuments(out, nil, nil)
}

func (c *Collection) FindOneAndUpdate(ctx context.Context, filter interface{}, update interface{}, opts ...*options.FindOneAndUpdateOptions) *mongo.SingleResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	f, _ := filter.(bson.M)
	u, _ := update.(bson.M)

	upsert, after := false, false
	for _, o := range opts {
		if o == nil {
			continue
		}
		if o.Upsert != nil && *o.Upsert {
			upsert = true
		}
		if o.ReturnDocument != nil && *o.ReturnDocument == options.After {
			after = true
		}
	}

	for _, doc := range c.docs {
		if matches(doc, f) {
			before := copyDoc(doc)
			applyUpdate(doc, u, false)
			if after {
				return mongo.NewSingleResultFromDocument(copyDoc(doc), nil, nil)
			}
			return mongo.NewSingleResultFromDocument(before, nil, nil)
		}
	}

	if !upsert {
		return noDocument()
	}

	// seed the new document from the filter's equality fields, as Mongo does
	doc := bson.M{}
	for k, v := range f {
		if strings.HasPrefix(k, "$") {
			continue
		}
		if _, isOp := v.(bson.M); isOp {
			continue
		}
		doc[k] = v
	}
	applyUpdate(doc, u, true)
	c.docs = append(c.docs, doc)
	if after {
		return mongo.NewSingleResultFromDocument(copyDoc(doc), nil, nil)
	}
	return noDocument()
}

func (c *Collection) FindOneAndDelete(ctx context.Context, filter interface{}, opts ...*options.FindOneAndDeleteOptions) *mongo.SingleResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	f, _ := filter.(bson.M)
	for i, doc := range c.docs {
		if matches(doc, f) {
			c.docs = append(c.docs[:i], c.docs[i+1:]...)
			return mongo.NewSingleResultFromDocument(doc, nil, nil)
		}
	}
	return noDocument()
}

func (c *Collection) InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (*mongo.InsertOneResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.docs = append(c.docs, toDoc(document))
	return &mongo.InsertOneResult{}, nil
}

func (c *Collection) UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	f, _ := filter.(bson.M)
	u, _ := update.(bson.M)
	for _, doc := range c.docs {
		if matches(doc, f) {
			applyUpdate(doc, u, false)
			return &mongo.UpdateResult{MatchedCount: 1, ModifiedCount: 1}, nil
		}
	}
	return &mongo.UpdateResult{}, nil
}

func (c *Collection) DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (*mongo.DeleteResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	f, _ := filter.(bson.M)
	for i, doc := range c.docs {
		if matches(doc, f) {
			c.docs = append(c.docs[:i], c.docs[i+1:]...)
			return &mongo.DeleteResult{DeletedCount: 1}, nil
		}
	}
	return &mongo.DeleteResult{}, nil
}

func (c *Collection) DeleteMany(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (*mongo.DeleteResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	f, _ := filter.(bson.M)
	var kept []bson.M
	var deleted int64
	for _, doc := range c.docs {
		if matches(doc, f) {
			deleted++
			continue
		}
		kept = append(kept, doc)
	}
	c.docs = kept
	return &mongo.DeleteResult{DeletedCount: deleted}, nil
}

func (c *Collection) CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	f, _ := filter.(bson.M)
	var n int64
	for _, doc := range c.docs {
		if matches(doc, f) {
			n++
		}
	}
	return n, nil
}
