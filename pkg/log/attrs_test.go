package log_test

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kode4food/renewal/pkg/api"
	"github.com/kode4food/renewal/pkg/log"
)

type errStub string

func TestPolicyID(t *testing.T) {
	attr := log.PolicyID("POL-001")
	assertAttrEqual(t, attr, "policy_id", "POL-001")
}

func TestRunID(t *testing.T) {
	attr := log.RunID("run-abc")
	assertAttrEqual(t, attr, "run_id", "run-abc")
}

func TestNode(t *testing.T) {
	attr := log.Node(api.NodeReviewContent)
	assertAttrEqual(t, attr, "node", "review_content")
}

func TestChannel(t *testing.T) {
	attr := log.Channel(api.ChannelWhatsApp)
	assertAttrEqual(t, attr, "channel", "WhatsApp")
}

func TestCollection(t *testing.T) {
	attr := log.Collection("objection_library")
	assertAttrEqual(t, attr, "collection", "objection_library")
}

func TestError(t *testing.T) {
	attr := log.Error(nil)
	assertAttrEqual(t, attr, "error", "")

	attr = log.Error(errStub("boom"))
	assertAttrEqual(t, attr, "error", "boom")
}

func TestErrorString(t *testing.T) {
	attr := log.ErrorString("badness")
	assertAttrEqual(t, attr, "error", "badness")
}

func (e errStub) Error() string { return string(e) }

func assertAttrEqual(t *testing.T, attr slog.Attr, key, value string) {
	t.Helper()
	assert.Equal(t, key, attr.Key)
	assert.Equal(t, value, attr.Value.String())
}
