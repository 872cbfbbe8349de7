package envelope

import (
	"bytes"
	"encoding/base64"
	"errors"
	"testing"

	"github.com/dmitrijs2005/secureclip/internal/common"
)

func TestEncodeDecode_RoundTrip(t *testing.T) {
	iv := []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}
	ciphertext := []byte{0, 127, 255, 42}

	s := Encode(iv, ciphertext)

	gotIV, gotCT, err := Decode(s)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if !bytes.Equal(gotIV, iv) {
		t.Errorf("iv mismatch: %v != %v", gotIV, iv)
	}
	if !bytes.Equal(gotCT, ciphertext) {
		t.Errorf("ciphertext mismatch: %v != %v", gotCT, ciphertext)
	}
}

func TestDecode_BrowserFixture(t *testing.T) {
	// btoa(JSON.stringify({iv: [1..12], data: [10,20,30,40,250]})) as the
	// browser client produces it.
	const fixture = "eyJpdiI6WzEsMiwzLDQsNSw2LDcsOCw5LDEwLDExLDEyXSwiZGF0YSI6WzEwLDIwLDMwLDQwLDI1MF19"

	iv, ct, err := Decode(fixture)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if !bytes.Equal(iv, []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}) {
		t.Errorf("unexpected iv: %v", iv)
	}
	if !bytes.Equal(ct, []byte{10, 20, 30, 40, 250}) {
		t.Errorf("unexpected data: %v", ct)
	}
}

func TestDecode_Malformed(t *testing.T) {
	badJSON := base64.StdEncoding.EncodeToString([]byte("{not json"))
	wrongShape := base64.StdEncoding.EncodeToString([]byte(`{"iv":"abc","data":"def"}`))
	shortIV := base64.StdEncoding.EncodeToString([]byte(`{"iv":[1,2,3],"data":[4]}`))
	bigByte := base64.StdEncoding.EncodeToString([]byte(`{"iv":[1,2,3,4,5,6,7,8,9,10,11,12],"data":[256]}`))
	negByte := base64.StdEncoding.EncodeToString([]byte(`{"iv":[1,2,3,4,5,6,7,8,9,10,11,-1],"data":[4]}`))

	cases := map[string]string{
		"not base64":     "%%%not-base64%%%",
		"not json":       badJSON,
		"wrong shape":    wrongShape,
		"short iv":       shortIV,
		"byte too large": bigByte,
		"negative byte":  negByte,
		"empty":          "",
	}

	for name, s := range cases {
		_, _, err := Decode(s)
		if !errors.Is(err, common.ErrMalformedEnvelope) {
			t.Errorf("%s: expected ErrMalformedEnvelope, got %v", name, err)
		}
	}
}

func TestDecode_EmptyData(t *testing.T) {
	s := Encode([]byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}, nil)
	_, ct, err := Decode(s)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if len(ct) != 0 {
		t.Errorf("expected empty ciphertext, got %v", ct)
	}
}
