package sim_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/phystrace/internal/config"
	"github.com/san-kum/phystrace/internal/contract"
	"github.com/san-kum/phystrace/internal/validate"
)

func TestSim(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Sim Suite")
}

// preset returns the validated form of a built-in scenario.
func preset(name string) *contract.Contract {
	GinkgoHelper()
	raw := config.GetPreset(name)
	Expect(raw).NotTo(BeNil(), "unknown preset %s", name)
	return normalized(raw)
}

func normalized(raw *contract.Contract) *contract.Contract {
	GinkgoHelper()
	r := validate.Validate(raw)
	Expect(r.Errors).To(BeEmpty())
	return r.Normalized
}
