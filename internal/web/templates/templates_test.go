package templates

import (
	"bytes"
	"context"
	"testing"

	"github.com/JonMunkholm/shipsort/internal/core"
	"github.com/stretchr/testify/require"
)

func TestErrorAlert(t *testing.T) {
	var buf bytes.Buffer
	err := ErrorAlert("無法讀取試算表", "請將檔案另存為 .xlsx 後重新上傳", "FILE002", "zip: <not> a valid zip file").
		Render(context.Background(), &buf)
	require.NoError(t, err)

	html := buf.String()
	require.Contains(t, html, `<strong>❌ 無法讀取試算表</strong>`)
	require.Contains(t, html, `<pre class="detail">zip: &lt;not&gt; a valid zip file</pre>`)
	require.Contains(t, html, `<p class="hint">代碼 FILE002</p>`)
}

func TestErrorAlert_OmitsEmptyParts(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, ErrorAlert("發生未預期的錯誤", "", "", "").Render(context.Background(), &buf))

	html := buf.String()
	require.NotContains(t, html, "<p>")
	require.NotContains(t, html, "detail")
	require.NotContains(t, html, "代碼")
}

func TestPage(t *testing.T) {
	preview := &core.Table{
		Header: []string{"收件人", "收件人地址"},
		Rows:   [][]string{{"王<b>", "澎湖縣馬公市"}},
	}
	data := PageData{
		Input: &InputView{FileName: "orders.xls", Rows: 3, Columns: []string{"收件人", "收件人地址"}},
		Run: &RunView{
			ID:            "r1",
			AddressColumn: "收件人地址",
			Summary:       core.Summary{Total: 3},
			Buckets: []BucketView{
				{Category: core.NoDistrict, Label: "需人工確認", FileName: "需人工確認_已修復.xlsx", URL: "/runs/r1/no-district", Count: 3, Preview: preview},
			},
		},
		Error:     &core.UserMessage{Message: "找不到地址欄位", Code: "COL001", Detail: "tried contains \"地址\"; headers [a]"},
		Accept:    ".csv,.xlsx",
		MaxFileMB: 10,
	}

	var buf bytes.Buffer
	require.NoError(t, Page(data).Render(context.Background(), &buf))
	html := buf.String()

	require.Contains(t, html, `accept=".csv,.xlsx" required`)
	require.Contains(t, html, "上限 10 MB")
	require.Contains(t, html, "成功讀取檔案 <strong>orders.xls</strong>！共 3 筆資料。")
	require.Contains(t, html, "欄位：收件人、收件人地址")
	require.Contains(t, html, `<pre class="detail">tried contains &#34;地址&#34;; headers [a]</pre>`)
	require.Contains(t, html, `<a class="button" href="/runs/r1/no-district" download="需人工確認_已修復.xlsx">📥 需人工確認</a>`)
	require.Contains(t, html, "<td>王&lt;b&gt;</td>")
	require.Contains(t, html, "僅顯示前 1 筆")
}
