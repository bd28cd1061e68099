package mongo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTimeoutOrDefault(t *testing.T) {
	assert.Equal(t, defaultConnectTimeout, timeoutOrDefault(0))
	assert.Equal(t, defaultConnectTimeout, timeoutOrDefault(-time.Second))
	assert.Equal(t, 3*time.Second, timeoutOrDefault(3*time.Second))
}
