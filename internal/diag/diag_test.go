package diag_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"codescope/internal/diag"
)

func TestNilLogDiscards(t *testing.T) {
	log := diag.New(false)
	assert.Nil(t, log)
	log.Printf("dropped %d", 1)
	assert.Nil(t, log.Lines())
}

func TestPrintfAccumulates(t *testing.T) {
	log := diag.New(true)
	log.Printf("first %s", "line")
	log.Printf("second")
	assert.Equal(t, []string{"first line", "second"}, log.Lines())
}

func TestConcurrentWriters(t *testing.T) {
	log := diag.New(true)
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				log.Printf("entry")
			}
		}()
	}
	wg.Wait()
	assert.Len(t, log.Lines(), 800)
}
