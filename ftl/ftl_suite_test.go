package ftl_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestFTL(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "FTL Suite")
}
