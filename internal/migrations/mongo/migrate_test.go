package mongo

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson"
)

func TestCollections_ParticipationsUniqueIndex(t *testing.T) {
	def, ok := collections()[ParticipationsCollection]
	if !ok {
		t.Fatalf("missing %s collection definition", ParticipationsCollection)
	}

	var found bool
	for _, idx := range def.Indexes {
		keys, ok := idx.Keys.(bson.D)
		if !ok || len(keys) != 2 {
			continue
		}
		if keys[0].Key == "webinar_id" && keys[1].Key == "user_id" {
			if idx.Options == nil || idx.Options.Unique == nil || !*idx.Options.Unique {
				t.Errorf("(webinar_id, user_id) index must be unique")
			}
			found = true
		}
	}
	if !found {
		t.Errorf("missing (webinar_id, user_id) index")
	}
}

func TestCollections_LocksExpire(t *testing.T) {
	def := collections()[ParticipationLocksCollection]
	if len(def.Indexes) != 1 {
		t.Fatalf("expected 1 index, got %d", len(def.Indexes))
	}
	opts := def.Indexes[0].Options
	if opts == nil || opts.ExpireAfterSeconds == nil || *opts.ExpireAfterSeconds != 0 {
		t.Errorf("lock index must expire documents at expires_at")
	}
}

func TestCollections_AllHaveValidators(t *testing.T) {
	for name, def := range collections() {
		if _, ok := def.Validator["$jsonSchema"]; !ok {
			t.Errorf("collection %s has no $jsonSchema validator", name)
		}
	}
}
