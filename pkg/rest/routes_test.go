package rest

import "testing"

func TestRoutePathRendering(t *testing.T) {
	r := EditMessage("111", "222")
	if r.Method != "PATCH" {
		t.Errorf("method = %s, want PATCH", r.Method)
	}
	if r.Path != "/channels/111/messages/222" {
		t.Errorf("path = %s", r.Path)
	}
}

func TestBucketKeyNormalizesResourceIDs(t *testing.T) {
	a := CreateMessage("111")
	b := CreateMessage("999")
	if a.BucketKey() != b.BucketKey() {
		t.Errorf("same route template produced different bucket keys: %q vs %q",
			a.BucketKey(), b.BucketKey())
	}
	if a.BucketKey() != "POST /channels/{channel}/messages" {
		t.Errorf("bucket key = %q", a.BucketKey())
	}
}

func TestBucketKeySeparatesMethods(t *testing.T) {
	get := GetMessage("1", "2")
	del := DeleteMessage("1", "2")
	if get.BucketKey() == del.BucketKey() {
		t.Error("GET and DELETE on the same template must not share a bucket")
	}
}

func TestReactionRoutesEncodeAllParams(t *testing.T) {
	r := DeleteUserReaction("c", "m", "%F0%9F%91%8D", "u")
	want := "/channels/c/messages/m/reactions/%F0%9F%91%8D/u"
	if r.Path != want {
		t.Errorf("path = %s, want %s", r.Path, want)
	}
}
