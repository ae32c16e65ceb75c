package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
)

// Endpoint keys understood by FakePubChem. They match the names the PubChem
// client reports.
const (
	FakeCIDs        = "cids"
	FakeProperties  = "properties"
	FakeSynonyms    = "synonyms"
	FakeStructure3D = "structure_3d"
	FakeStructure2D = "structure_2d"
)

// FakeCompound is one record served by FakePubChem. Empty SDF fields are
// answered with 404.
type FakeCompound struct {
	CID      int64
	Names    []string
	IUPAC    string
	Formula  string
	Weight   string
	Synonyms []string
	SDF3D    string
	SDF2D    string
}

// FakePubChem is an httptest server speaking the subset of PUG REST used by
// the explorer. Behaviour per endpoint can be overridden with a forced status,
// a raw body or an artificial delay.
type FakePubChem struct {
	Server *httptest.Server

	mu        sync.Mutex
	compounds map[int64]FakeCompound
	byName    map[string]int64
	status    map[string]int
	body      map[string]string
	delay     map[string]time.Duration
	hits      map[string]int
	headers   []http.Header
}

// NewFakePubChem starts a fake server that is closed with the test.
func NewFakePubChem(t testing.TB) *FakePubChem {
	t.Helper()
	f := &FakePubChem{
		compounds: map[int64]FakeCompound{},
		byName:    map[string]int64{},
		status:    map[string]int{},
		body:      map[string]string{},
		delay:     map[string]time.Duration{},
		hits:      map[string]int{},
	}

	r := chi.NewRouter()
	r.Get("/compound/name/{name}/cids/JSON", f.handleCIDs)
	r.Get("/compound/cid/{cid}/property/{props}/JSON", f.handleProperties)
	r.Get("/compound/cid/{cid}/synonyms/JSON", f.handleSynonyms)
	r.Get("/compound/cid/{cid}/record/SDF/", f.handleStructure3D)
	r.Get("/compound/cid/{cid}/SDF", f.handleStructure2D)

	f.Server = httptest.NewServer(r)
	t.Cleanup(f.Server.Close)
	return f
}

// URL is the base URL to hand to the PubChem client.
func (f *FakePubChem) URL() string { return f.Server.URL }

// Add registers a compound under its CID and each of its names.
func (f *FakePubChem) Add(c FakeCompound) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.compounds[c.CID] = c
	for _, n := range c.Names {
		f.byName[strings.ToLower(n)] = c.CID
	}
}

// SetStatus forces every answer of endpoint to carry code.
func (f *FakePubChem) SetStatus(endpoint string, code int) {
	f.mu.Lock()
	f.status[endpoint] = code
	f.mu.Unlock()
}

// SetBody forces the 200 body of endpoint.
func (f *FakePubChem) SetBody(endpoint, body string) {
	f.mu.Lock()
	f.body[endpoint] = body
	f.mu.Unlock()
}

// SetDelay makes endpoint wait d before answering, or until the client gives up.
func (f *FakePubChem) SetDelay(endpoint string, d time.Duration) {
	f.mu.Lock()
	f.delay[endpoint] = d
	f.mu.Unlock()
}

// Hits returns how often endpoint was called.
func (f *FakePubChem) Hits(endpoint string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hits[endpoint]
}

// LastHeaders returns the headers of the most recent request.
func (f *FakePubChem) LastHeaders() http.Header {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.headers) == 0 {
		return nil
	}
	return f.headers[len(f.headers)-1]
}

// intercept records the hit and applies overrides. It reports whether the
// request was fully answered.
func (f *FakePubChem) intercept(w http.ResponseWriter, r *http.Request, endpoint string) bool {
	f.mu.Lock()
	f.hits[endpoint]++
	f.headers = append(f.headers, r.Header.Clone())
	delay := f.delay[endpoint]
	status := f.status[endpoint]
	body, hasBody := f.body[endpoint]
	f.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return true
		}
	}
	if status != 0 {
		http.Error(w, http.StatusText(status), status)
		return true
	}
	if hasBody {
		_, _ = w.Write([]byte(body))
		return true
	}
	return false
}

func (f *FakePubChem) lookup(r *http.Request) (FakeCompound, bool) {
	cid, err := strconv.ParseInt(chi.URLParam(r, "cid"), 10, 64)
	if err != nil {
		return FakeCompound{}, false
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.compounds[cid]
	return c, ok
}

func writeFakeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func (f *FakePubChem) handleCIDs(w http.ResponseWriter, r *http.Request) {
	if f.intercept(w, r, FakeCIDs) {
		return
	}
	name, err := url.PathUnescape(chi.URLParam(r, "name"))
	if err != nil {
		name = chi.URLParam(r, "name")
	}
	f.mu.Lock()
	cid, ok := f.byName[strings.ToLower(name)]
	f.mu.Unlock()
	if !ok {
		http.Error(w, `{"Fault":{"Code":"PUGREST.NotFound"}}`, http.StatusNotFound)
		return
	}
	writeFakeJSON(w, map[string]interface{}{"IdentifierList": map[string]interface{}{"CID": []int64{cid}}})
}

func (f *FakePubChem) handleProperties(w http.ResponseWriter, r *http.Request) {
	if f.intercept(w, r, FakeProperties) {
		return
	}
	c, ok := f.lookup(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	writeFakeJSON(w, map[string]interface{}{
		"PropertyTable": map[string]interface{}{
			"Properties": []map[string]interface{}{{
				"CID":              c.CID,
				"IUPACName":        c.IUPAC,
				"MolecularFormula": c.Formula,
				"MolecularWeight":  c.Weight,
			}},
		},
	})
}

func (f *FakePubChem) handleSynonyms(w http.ResponseWriter, r *http.Request) {
	if f.intercept(w, r, FakeSynonyms) {
		return
	}
	c, ok := f.lookup(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	writeFakeJSON(w, map[string]interface{}{
		"InformationList": map[string]interface{}{
			"Information": []map[string]interface{}{{"CID": c.CID, "Synonym": c.Synonyms}},
		},
	})
}

func (f *FakePubChem) handleStructure3D(w http.ResponseWriter, r *http.Request) {
	if f.intercept(w, r, FakeStructure3D) {
		return
	}
	c, ok := f.lookup(r)
	if !ok || c.SDF3D == "" || r.URL.Query().Get("record_type") != "3d" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "chemical/x-mdl-sdfile")
	_, _ = w.Write([]byte(c.SDF3D))
}

func (f *FakePubChem) handleStructure2D(w http.ResponseWriter, r *http.Request) {
	if f.intercept(w, r, FakeStructure2D) {
		return
	}
	c, ok := f.lookup(r)
	if !ok || c.SDF2D == "" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "chemical/x-mdl-sdfile")
	_, _ = w.Write([]byte(c.SDF2D))
}

// SampleSDF renders a minimal V2000 record with the given header name and
// counts line. The atom and bond blocks are filled with placeholder rows.
func SampleSDF(name string, atoms, bonds int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s\n  -OEChem-10142612003D\n\n", name)
	fmt.Fprintf(&sb, "%3d%3d  0     0  0  0  0  0  0999 V2000\n", atoms, bonds)
	for i := 0; i < atoms; i++ {
		fmt.Fprintf(&sb, "%10.4f%10.4f%10.4f C   0  0  0  0  0  0  0  0  0  0  0  0\n", float64(i), 0.0, 0.0)
	}
	for i := 0; i < bonds; i++ {
		fmt.Fprintf(&sb, "%3d%3d  1  0  0  0  0\n", i+1, i+2)
	}
	sb.WriteString("M  END\n$$$$\n")
	return sb.String()
}

// Aspirin is a ready-made record for CID 2244.
func Aspirin() FakeCompound {
	return FakeCompound{
		CID:      2244,
		Names:    []string{"aspirin", "acetylsalicylic acid"},
		IUPAC:    "2-acetyloxybenzoic acid",
		Formula:  "C9H8O4",
		Weight:   "180.16",
		Synonyms: []string{"aspirin", "ACETYLSALICYLIC ACID", "50-78-2", "2-Acetoxybenzoic acid", "UNII-R16CO5Y76E", "CHEMBL25"},
		SDF3D:    SampleSDF("2244", 21, 21),
		SDF2D:    SampleSDF("2244", 13, 13),
	}
}

// Caffeine is a ready-made record for CID 2519.
func Caffeine() FakeCompound {
	return FakeCompound{
		CID:      2519,
		Names:    []string{"caffeine"},
		IUPAC:    "1,3,7-trimethylpurine-2,6-dione",
		Formula:  "C8H10N4O2",
		Weight:   "194.19",
		Synonyms: []string{"caffeine", "Guaranine", "58-08-2", "1,3,7-Trimethylxanthine", "ZINC000000001084"},
		SDF3D:    SampleSDF("2519", 24, 25),
		SDF2D:    SampleSDF("2519", 14, 15),
	}
}
