package clientstats

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	jsoniter "github.com/json-iterator/go"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/prom2json"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type engineScraper struct {
	url     string
	tripper http.RoundTripper
}

func (es *engineScraper) Scrape() (io.Reader, error) {
	log.Debugf("Scraping epoch engine at %s", es.url)
	pf, err := scrapeProm(es.url, es.tripper)
	if err != nil {
		return nil, err
	}

	stats := populateEngineStats(pf)

	b, err := json.Marshal(stats)
	return bytes.NewBuffer(b), err
}

// NewEngineScraper constructs a Scraper capable of scraping
// the prometheus endpoint of an epoch engine process and producing
// the json body for the beaconnode client-stats process type.
func NewEngineScraper(promExpoURL string) Scraper {
	return &engineScraper{
		url: promExpoURL,
	}
}

type systemScraper struct {
	url     string
	tripper http.RoundTripper
}

func (ss *systemScraper) Scrape() (io.Reader, error) {
	log.Debugf("Scraping system stats at %s", ss.url)
	pf, err := scrapeProm(ss.url, ss.tripper)
	if err != nil {
		return nil, err
	}

	stats := populateSystemStats(pf)

	b, err := json.Marshal(stats)
	return bytes.NewBuffer(b), err
}

// NewSystemScraper constructs a Scraper producing the system
// client-stats document from the go runtime metrics of a process.
func NewSystemScraper(promExpoURL string) Scraper {
	return &systemScraper{
		url: promExpoURL,
	}
}

// note on tripper -- under the hood FetchMetricFamilies constructs an http.Client,
// which, if transport is nil, will just use the DefaultTransport, so we
// really only bother specifying the transport in tests, otherwise we let
// the zero-value (which is nil) flow through so that the default transport
// will be used.
func scrapeProm(url string, tripper http.RoundTripper) (map[string]*dto.MetricFamily, error) {
	mfChan := make(chan *dto.MetricFamily)
	errChan := make(chan error, 1)
	go func() {
		// FetchMetricFamilies handles grpc flavored prometheus ez
		// but at the cost of the awkward channel select loop below
		err := prom2json.FetchMetricFamilies(url, mfChan, tripper)
		if err != nil {
			errChan <- err
		}
	}()
	result := make(map[string]*dto.MetricFamily)
	// channel select accumulates results from FetchMetricFamilies
	// unless there is an error.
	for {
		select {
		case fam, chanOpen := <-mfChan:
			// FetchMetricFamiles will close the channel when done
			// at which point we want to stop the goroutine
			if fam == nil && !chanOpen {
				return result, nil
			}
			result[fam.GetName()] = fam
		case err := <-errChan:
			return result, err
		}
	}
}

type metricMap map[string]*dto.MetricFamily

func (mm metricMap) getFamily(name string) (*dto.MetricFamily, error) {
	f, ok := mm[name]
	if !ok {
		return nil, fmt.Errorf("scraper did not find metric family %s", name)
	}
	if len(f.Metric) == 0 {
		return nil, fmt.Errorf("metric family %s has no samples", name)
	}
	return f, nil
}

// value reads the first sample of a family whatever its type.
func (mm metricMap) value(name string) (float64, bool) {
	f, err := mm.getFamily(name)
	if err != nil {
		log.WithError(err).Debugf("Failed to get %s", name)
		return 0, false
	}
	m := f.Metric[0]
	switch {
	case m.Counter != nil:
		return m.Counter.GetValue(), true
	case m.Gauge != nil:
		return m.Gauge.GetValue(), true
	case m.Untyped != nil:
		return m.Untyped.GetValue(), true
	}
	return 0, false
}

var now = time.Now // var hook for tests to overwrite
var nanosPerMilli = int64(time.Millisecond) / int64(time.Nanosecond)

func populateAPIMessage(processName string) APIMessage {
	return APIMessage{
		Timestamp:   now().UnixNano() / nanosPerMilli,
		APIVersion:  APIVersion,
		ProcessName: processName,
	}
}

func populateCommonStats(pf metricMap) CommonStats {
	cs := CommonStats{}
	cs.ClientName = ClientName

	if v, ok := pf.value("process_cpu_seconds_total"); ok {
		// float64->int64: truncates fractional seconds
		cs.CPUProcessSecondsTotal = int64(v)
	}
	if v, ok := pf.value("process_resident_memory_bytes"); ok {
		cs.MemoryProcessBytes = int64(v)
	}

	f, err := pf.getFamily("epochengine_version")
	if err != nil {
		log.WithError(err).Debug("Failed to get epochengine_version")
	} else {
		m := f.Metric[0]
		for _, l := range m.GetLabel() {
			switch l.GetName() {
			case "version":
				cs.ClientVersion = l.GetValue()
			case "buildDate":
				buildDate, err := strconv.Atoi(l.GetValue())
				if err != nil {
					log.WithError(err).Debug("Failed to retrieve buildDate label from the epochengine_version metric")
					continue
				}
				cs.ClientBuild = int64(buildDate)
			}
		}
	}

	return cs
}

func populateEngineStats(pf metricMap) EngineStats {
	es := EngineStats{}
	es.CommonStats = populateCommonStats(pf)
	es.APIMessage = populateAPIMessage(EngineProcessName)

	if v, ok := pf.value("epoch_last_processed"); ok {
		es.EpochLastProcessed = int64(v)
	}
	if v, ok := pf.value("epoch_transitions_total"); ok {
		es.EpochTransitionsTotal = int64(v)
	}
	if v, ok := pf.value("epoch_rewards_gwei"); ok {
		es.EpochRewardsGwei = int64(v)
	}
	if v, ok := pf.value("epoch_penalties_gwei"); ok {
		es.EpochPenaltiesGwei = int64(v)
	}
	if v, ok := pf.value("archived_states_total"); ok {
		es.ArchivedStatesTotal = int64(v)
	}

	f, err := pf.getFamily("p2p_peer_count")
	if err != nil {
		log.WithError(err).Debug("Failed to get p2p_peer_count")
	} else {
		for _, m := range f.Metric {
			for _, l := range m.GetLabel() {
				if l.GetName() == "state" && l.GetValue() == "Connected" {
					es.NetworkPeersConnected = int64(m.Gauge.GetValue())
				}
			}
		}
	}

	return es
}

func populateSystemStats(pf metricMap) SystemStats {
	ss := SystemStats{}
	ss.APIMessage = populateAPIMessage(SystemProcessName)

	if v, ok := pf.value("system_cpu_cores"); ok {
		ss.CPUCores = int64(v)
	}
	if v, ok := pf.value("go_sched_gomaxprocs_threads"); ok {
		ss.CPUThreads = int64(v)
	}
	if v, ok := pf.value("go_memstats_heap_alloc_bytes"); ok {
		ss.MemoryHeapBytes = int64(v)
	}
	if v, ok := pf.value("go_memstats_sys_bytes"); ok {
		ss.MemorySystemBytes = int64(v)
	}
	if v, ok := pf.value("go_goroutines"); ok {
		ss.Goroutines = int64(v)
	}
	return ss
}
