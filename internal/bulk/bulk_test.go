package bulk_test

import (
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tournevent/courier/internal/bulk"
	"github.com/tournevent/courier/pkg/courier"
)

func TestParseFormat(t *testing.T) {
	f, err := bulk.ParseFormat(" CSV ")
	require.NoError(t, err)
	assert.Equal(t, bulk.FormatCSV, f)
	assert.Equal(t, "text/csv; charset=utf-8", f.ContentType())

	_, err = bulk.ParseFormat("xlsx")
	assert.ErrorIs(t, err, bulk.ErrUnsupported)
}

func TestTemplate_CSVRoundTripsThroughParser(t *testing.T) {
	for _, provider := range []string{"steadfast", "pathao"} {
		t.Run(provider, func(t *testing.T) {
			data, err := bulk.Template(provider, bulk.FormatCSV)
			require.NoError(t, err)

			records, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
			require.NoError(t, err)
			require.Len(t, records, 2)

			switch provider {
			case "steadfast":
				assert.Equal(t, "invoice", records[0][0])
				orders, err := bulk.ParseSteadfast(data)
				require.NoError(t, err)
				require.Len(t, orders, 1)
				assert.Equal(t, 1500.0, orders[0].CODAmount)
			case "pathao":
				assert.Equal(t, "store_id", records[0][0])
				reqs, err := bulk.ParsePathao(data)
				require.NoError(t, err)
				require.Len(t, reqs, 1)
				assert.Equal(t, "1", reqs[0].StoreID)
				assert.Equal(t, courier.DeliveryStandard, reqs[0].Delivery)
			}
		})
	}
}

func TestTemplate_JSON(t *testing.T) {
	data, err := bulk.Template("steadfast", bulk.FormatJSON)
	require.NoError(t, err)

	var rows []map[string]any
	require.NoError(t, json.Unmarshal(data, &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "INV-1024", rows[0]["invoice"])
	assert.Equal(t, 1500.0, rows[0]["cod_amount"])

	orders, err := bulk.ParseSteadfast(data)
	require.NoError(t, err)
	assert.Len(t, orders, 1)
}

func TestTemplate_UnsupportedProvider(t *testing.T) {
	_, err := bulk.Template("redx", bulk.FormatCSV)
	assert.ErrorIs(t, err, bulk.ErrUnsupported)
}

func TestParseSteadfast_CSVMissingRequiredCell(t *testing.T) {
	data := "invoice,recipient_name,recipient_phone,recipient_address,cod_amount\n" +
		"INV-1,Rahim,01712345678,Dhanmondi,500\n" +
		"INV-2,,0171234567,Gulshan,\n"

	_, err := bulk.ParseSteadfast([]byte(data))

	var verrs courier.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	fields := map[string]bool{}
	for _, fe := range verrs {
		fields[fe.Field] = true
	}
	assert.True(t, fields["orders[1].recipient_name"])
	assert.True(t, fields["orders[1].cod_amount"])
	assert.False(t, fields["orders[0].invoice"])
}

func TestParseSteadfast_CSVNonNumericAmount(t *testing.T) {
	data := "invoice,recipient_name,recipient_phone,recipient_address,cod_amount\n" +
		"INV-1,Rahim,01712345678,Dhanmondi,five hundred\n"

	_, err := bulk.ParseSteadfast([]byte(data))

	var verrs courier.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, "orders[0].cod_amount", verrs[0].Field)
}

func TestParsePathao_ValidationPrefixesRows(t *testing.T) {
	data := `[{"store_id":1,"recipient_name":"Rahim","recipient_phone":"123","recipient_address":"Dhanmondi",
		"recipient_city":1,"recipient_zone":2,"delivery_type":48,"item_type":2,"item_quantity":1,"item_weight":0.5}]`

	_, err := bulk.ParsePathao([]byte(data))

	var verrs courier.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, "orders[0].recipient_phone", verrs[0].Field)
}

func TestParsePathao_Mapping(t *testing.T) {
	data := `[{"store_id":7,"merchant_order_id":"1024","recipient_name":"Rahim","recipient_phone":"01712345678",
		"recipient_address":"Dhanmondi","recipient_city":1,"recipient_zone":2,"recipient_area":3,
		"delivery_type":12,"item_type":1,"item_quantity":2,"item_weight":1.5,"amount_to_collect":900}]`

	reqs, err := bulk.ParsePathao([]byte(data))

	require.NoError(t, err)
	require.Len(t, reqs, 1)
	r := reqs[0]
	assert.Equal(t, "7", r.StoreID)
	assert.Equal(t, courier.Location{CityID: 1, ZoneID: 2, AreaID: 3}, r.Location)
	assert.Equal(t, courier.DeliveryExpress, r.Delivery)
	assert.Equal(t, courier.ItemDocument, r.Item.Type)
	assert.Equal(t, "900", r.CollectAmount.String())
}

func TestParsePathao_Empty(t *testing.T) {
	_, err := bulk.ParsePathao([]byte(`[]`))
	assert.ErrorIs(t, err, courier.ErrInvalidRequest)
}
