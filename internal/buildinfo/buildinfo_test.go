package buildinfo

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrintBuildData(t *testing.T) {
	orig := buildVersion
	buildVersion = "v1.2.3"
	t.Cleanup(func() { buildVersion = orig })

	var b bytes.Buffer
	PrintBuildData(&b)

	assert.Contains(t, b.String(), "Build version: v1.2.3\n")
	assert.Contains(t, b.String(), "Build commit: N/A\n")
}
