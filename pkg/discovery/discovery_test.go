package discovery

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInstanceKey(t *testing.T) {
	inst := &ServiceInstance{Name: "artshop", Host: "10.0.0.5", Port: 8080}

	assert.Equal(t, "10.0.0.5:8080", inst.Addr())
	assert.Equal(t, "/services/artshop/10.0.0.5:8080", instanceKey("/services/", inst))
}
