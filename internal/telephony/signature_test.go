package telephony

import (
	"net/url"
	"testing"
)

func TestComputeSignature_Deterministic(t *testing.T) {
	form := url.Values{}
	form.Set("CallSid", "CA123")
	form.Set("RecordingUrl", "https://media.example.com/rec/1")
	form.Set("RecordingDuration", "245")

	sig1 := ComputeSignature("secret-token", "https://app.example.com/webhooks/telephony/recording", form)
	sig2 := ComputeSignature("secret-token", "https://app.example.com/webhooks/telephony/recording", form)

	if sig1 != sig2 {
		t.Errorf("signature not deterministic: %s vs %s", sig1, sig2)
	}
	if sig1 == "" {
		t.Error("empty signature")
	}
}

func TestComputeSignature_KeyOrderIndependent(t *testing.T) {
	// url.Values — map, порядок вставки не влияет на подпись
	a := url.Values{"B": {"2"}, "A": {"1"}, "C": {"3"}}
	b := url.Values{"C": {"3"}, "A": {"1"}, "B": {"2"}}

	sigA := ComputeSignature("token", "https://app/hook", a)
	sigB := ComputeSignature("token", "https://app/hook", b)

	if sigA != sigB {
		t.Errorf("signature depends on map order: %s vs %s", sigA, sigB)
	}
}

func TestValidateSignature(t *testing.T) {
	form := url.Values{}
	form.Set("CallSid", "CA999")

	sig := ComputeSignature("token", "https://app/hook", form)

	if !ValidateSignature("token", "https://app/hook", form, sig) {
		t.Error("valid signature rejected")
	}
	if ValidateSignature("wrong-token", "https://app/hook", form, sig) {
		t.Error("signature with wrong token accepted")
	}
	if ValidateSignature("token", "https://app/other", form, sig) {
		t.Error("signature for different URL accepted")
	}

	tampered := url.Values{}
	tampered.Set("CallSid", "CA000")
	if ValidateSignature("token", "https://app/hook", tampered, sig) {
		t.Error("signature for tampered form accepted")
	}
}
