package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLogWritesNamespaceAndMessage(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Options{Output: &buf})

	logger.Log("onesdk", "bound profile ", "foo")

	out := buf.String()
	assert.Contains(t, out, "[onesdk]")
	assert.Contains(t, out, "bound profile foo")
}

func TestNopDiscardsMessages(t *testing.T) {
	var n Nop
	n.Log("x", "should not panic")
}

func TestLogIsSafeForConcurrentUse(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Options{Output: &buf})

	done := make(chan struct{})
	for i := 0; i < 10; i++ {
		go func(n int) {
			logger.Log("worker", "iteration", n)
			done <- struct{}{}
		}(i)
	}
	for i := 0; i < 10; i++ {
		<-done
	}

	assert.True(t, strings.Count(buf.String(), "\n") >= 10)
}
