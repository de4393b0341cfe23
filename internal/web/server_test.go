package web

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"padronizador/internal"
	"padronizador/internal/config"
	"padronizador/internal/pipeline"
)

func testConfig() config.Config {
	return config.Config{
		HTTPAddr:        ":0",
		MaxUploadBytes:  1 << 20,
		PreviewRows:     10,
		SampleRows:      5,
		ExportSheetName: "Padronizado",
		ExportFileName:  "Juizes_Padronizados.xlsx",
	}
}

func newTestServer(t *testing.T, cfg config.Config) http.Handler {
	t.Helper()
	s, err := NewServer(cfg, nil)
	require.NoError(t, err)
	return s.Handler()
}

func mkXLSX(t *testing.T, rows [][]any) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func sampleWorkbook(t *testing.T) []byte {
	return mkXLSX(t, [][]any{
		{"Processo", "Vara", "Nome"},
		{"0001", "1ª Cível", "João da Silva"},
		{"0002", "2ª Cível", nil},
		{"0003", "3ª Cível", "Informação indisponível no site"},
		{"0004", "4ª Cível", "@Dra. Cação"},
	})
}

func multipartRequest(t *testing.T, target, fileName string, content []byte, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if content != nil {
		fw, err := mw.CreateFormFile("file", fileName)
		require.NoError(t, err)
		_, err = fw.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func parseHTML(t *testing.T, rec *httptest.ResponseRecorder) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(rec.Body)
	require.NoError(t, err)
	return doc
}

func TestIndex(t *testing.T) {
	h := newTestServer(t, testConfig())
	rec := serve(h, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	doc := parseHTML(t, rec)
	assert.Equal(t, 1, doc.Find("form#upload input[type=file][name=file]").Length())
	assert.Contains(t, doc.Find("#help").Text(), "João -> JOAO")
	assert.Contains(t, doc.Find("#help").Text(), "@Dra. -> DRA")
	assert.Equal(t, pipeline.DefaultRules().Names()[0], doc.Find("#rules li").First().Text())
}

func TestHealthz(t *testing.T) {
	h := newTestServer(t, testConfig())
	rec := serve(h, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPreview(t *testing.T) {
	h := newTestServer(t, testConfig())
	content := sampleWorkbook(t)
	rec := serve(h, multipartRequest(t, "/preview", "juizes.xlsx", content, nil))
	require.Equal(t, http.StatusOK, rec.Code)

	doc := parseHTML(t, rec)
	assert.Contains(t, doc.Find("#rows").Text(), "4 linhas")
	assert.Equal(t, 3, doc.Find("#preview thead th").Length())
	assert.Equal(t, 4, doc.Find("#preview tbody tr").Length())
	assert.Equal(t, 0, doc.Find("#few-columns").Length())

	selected, ok := doc.Find("select[name=column] option[selected]").Attr("value")
	require.True(t, ok)
	assert.Equal(t, "Nome", selected)

	payload, ok := doc.Find("form#normalize input[name=payload]").Attr("value")
	require.True(t, ok)
	decoded, err := base64.StdEncoding.DecodeString(payload)
	require.NoError(t, err)
	assert.Equal(t, content, decoded)
}

func TestPreviewFewColumnsWarning(t *testing.T) {
	h := newTestServer(t, testConfig())
	content := []byte("Nome\nJoão\nMaria\n")
	rec := serve(h, multipartRequest(t, "/preview", "nomes.csv", content, nil))
	require.Equal(t, http.StatusOK, rec.Code)

	doc := parseHTML(t, rec)
	assert.Equal(t, 1, doc.Find("#few-columns").Length())
	selected, _ := doc.Find("select[name=column] option[selected]").Attr("value")
	assert.Equal(t, "Nome", selected)
}

func TestNormalizeFromPayload(t *testing.T) {
	h := newTestServer(t, testConfig())
	form := url.Values{
		"payload":  {base64.StdEncoding.EncodeToString(sampleWorkbook(t))},
		"filename": {"juizes.xlsx"},
		"column":   {"Nome"},
	}
	req := httptest.NewRequest(http.MethodPost, "/normalize", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := serve(h, req)
	require.Equal(t, http.StatusOK, rec.Code)

	doc := parseHTML(t, rec)
	assert.Contains(t, doc.Find("#success").Text(), "Nome")
	assert.Equal(t, "4", doc.Find("#metric-rows").Text())
	assert.Equal(t, "2", doc.Find("#metric-changed").Text())
	assert.Equal(t, "1", doc.Find("#metric-blank").Text())
	assert.Equal(t, "1", doc.Find("#metric-exception").Text())

	first := doc.Find("#samples tbody tr").First().Find("td")
	assert.Equal(t, "João da Silva", first.Eq(1).Text())
	assert.Equal(t, "JOAO DA SILVA", first.Eq(2).Text())

	column, _ := doc.Find("form#download input[name=column]").Attr("value")
	assert.Equal(t, "Nome", column)
}

func TestDownload(t *testing.T) {
	h := newTestServer(t, testConfig())
	req := multipartRequest(t, "/download", "juizes.xlsx", sampleWorkbook(t), map[string]string{"column": "Nome"})
	rec := serve(h, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, pipeline.XLSXMimeType, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "Juizes_Padronizados.xlsx")

	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Padronizado")
	require.NoError(t, err)
	require.Len(t, rows, 5)
	assert.Equal(t, []string{"Processo", "Vara", "Nome"}, rows[0])
	assert.Equal(t, "JOAO DA SILVA", rows[1][2])
	assert.Equal(t, "Informação indisponível no site", rows[3][2])
	assert.Equal(t, "DRA CACAO", rows[4][2])
}

func TestAPIColumns(t *testing.T) {
	h := newTestServer(t, testConfig())
	rec := serve(h, multipartRequest(t, "/api/columns", "juizes.xlsx", sampleWorkbook(t), nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var got columnsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, 4, got.Rows)
	assert.Equal(t, []string{"Processo", "Vara", "Nome"}, got.Columns)
	assert.Equal(t, "Nome", got.Suggested)
	assert.False(t, got.FewColumns)
}

func TestAPINormalizeJSON(t *testing.T) {
	h := newTestServer(t, testConfig())
	rec := serve(h, multipartRequest(t, "/api/normalize?format=json", "juizes.xlsx", sampleWorkbook(t), nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var got internal.RunSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "Nome", got.Column)
	assert.Equal(t, 4, got.Rows)
	assert.Equal(t, "juizes.xlsx", got.FileName)
	assert.NotEmpty(t, got.TraceID)
}

func TestAPINormalizeWorkbook(t *testing.T) {
	h := newTestServer(t, testConfig())
	rec := serve(h, multipartRequest(t, "/api/normalize", "juizes.xlsx", sampleWorkbook(t), map[string]string{"column": "Vara"}))
	require.Equal(t, http.StatusOK, rec.Code)

	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	v, err := f.GetCellValue("Padronizado", "B2")
	require.NoError(t, err)
	assert.Equal(t, "A CIVEL", v)
}

func TestErrors(t *testing.T) {
	cases := []struct {
		name   string
		req    func(t *testing.T) *http.Request
		status int
	}{
		{
			name: "missing column",
			req: func(t *testing.T) *http.Request {
				return multipartRequest(t, "/api/normalize", "juizes.xlsx", sampleWorkbook(t), map[string]string{"column": "Juiz"})
			},
			status: http.StatusBadRequest,
		},
		{
			name: "unsupported format",
			req: func(t *testing.T) *http.Request {
				return multipartRequest(t, "/api/columns", "juizes.pdf", []byte("%PDF-1.4"), nil)
			},
			status: http.StatusBadRequest,
		},
		{
			name: "no file",
			req: func(t *testing.T) *http.Request {
				return multipartRequest(t, "/api/columns", "", nil, nil)
			},
			status: http.StatusBadRequest,
		},
		{
			name: "too large",
			req: func(t *testing.T) *http.Request {
				return multipartRequest(t, "/api/columns", "big.csv", bytes.Repeat([]byte("a"), 3<<20), nil)
			},
			status: http.StatusRequestEntityTooLarge,
		},
	}

	h := newTestServer(t, testConfig())
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := serve(h, tc.req(t))
			assert.Equal(t, tc.status, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			var got errorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
			assert.NotEmpty(t, got.Error)
		})
	}
}

func TestDownloadErrorRendersPage(t *testing.T) {
	h := newTestServer(t, testConfig())
	req := multipartRequest(t, "/download", "juizes.xlsx", sampleWorkbook(t), map[string]string{"column": "Juiz"})
	rec := serve(h, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NotEqual(t, pipeline.XLSXMimeType, rec.Header().Get("Content-Type"))
	doc := parseHTML(t, rec)
	assert.Contains(t, doc.Find("#error").Text(), "Juiz")
}

func payloadRequest(target string, content []byte, column string) *http.Request {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	_ = mw.WriteField("payload", base64.StdEncoding.EncodeToString(content))
	_ = mw.WriteField("filename", "juizes.csv")
	_ = mw.WriteField("column", column)
	_ = mw.Close()
	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestNormalizePayloadNearUploadLimit(t *testing.T) {
	cfg := testConfig()
	cfg.MaxUploadBytes = 64 << 10

	var buf bytes.Buffer
	buf.WriteString("Processo,Vara,Nome\n")
	rows := 0
	for {
		line := fmt.Sprintf("%06d,1ª Cível,João da Silva\n", rows)
		if int64(buf.Len()+len(line)) > cfg.MaxUploadBytes {
			break
		}
		buf.WriteString(line)
		rows++
	}

	h := newTestServer(t, cfg)
	rec := serve(h, payloadRequest("/normalize", buf.Bytes(), "Nome"))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	doc := parseHTML(t, rec)
	assert.Equal(t, fmt.Sprint(rows), doc.Find("#metric-rows").Text())

	rec = serve(h, payloadRequest("/download", buf.Bytes(), "Nome"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, pipeline.XLSXMimeType, rec.Header().Get("Content-Type"))

	over := append(buf.Bytes(), bytes.Repeat([]byte("x"), int(cfg.MaxUploadBytes))...)
	rec = serve(h, payloadRequest("/normalize", over, "Nome"))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestFormLimitFitsEncodedPayload(t *testing.T) {
	for _, max := range []int64{1 << 20, 50 << 20, 200 << 20} {
		cfg := testConfig()
		cfg.MaxUploadBytes = max
		s, err := NewServer(cfg, nil)
		require.NoError(t, err)
		encoded := int64(base64.StdEncoding.EncodedLen(int(max)))
		assert.Greater(t, s.formLimit(), encoded, "max=%d", max)
	}
}

func TestContentDisposition(t *testing.T) {
	for _, name := range []string{"Juizes_Padronizados.xlsx", "Juízes Padronizados.xlsx"} {
		disposition, params, err := mime.ParseMediaType(contentDisposition(name))
		require.NoError(t, err)
		assert.Equal(t, "attachment", disposition)
		assert.Equal(t, name, params["filename"])
	}
}

func TestDownloadNonASCIIFileName(t *testing.T) {
	cfg := testConfig()
	cfg.ExportFileName = "Juízes.xlsx"
	h := newTestServer(t, cfg)
	rec := serve(h, multipartRequest(t, "/download", "juizes.xlsx", sampleWorkbook(t), map[string]string{"column": "Nome"}))
	require.Equal(t, http.StatusOK, rec.Code)
	header := rec.Header().Get("Content-Disposition")
	for _, b := range []byte(header) {
		require.Less(t, b, byte(0x80), "header must be ASCII: %q", header)
	}
	_, params, err := mime.ParseMediaType(header)
	require.NoError(t, err)
	assert.Equal(t, "Juízes.xlsx", params["filename"])
}
