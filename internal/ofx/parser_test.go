package ofx

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/the-spread-must-flow/internal/model"
)

const ofxHeader = `OFXHEADER:100
DATA:OFXSGML
VERSION:102
SECURITY:NONE
ENCODING:USASCII
CHARSET:1252
COMPRESSION:NONE
OLDFILEUID:NONE
NEWFILEUID:NONE

<OFX>
<SIGNONMSGSRSV1>
<SONRS>
<STATUS>
<CODE>0
<SEVERITY>Info
</STATUS>
<DTSERVER>20240315120000[0:GMT]
<LANGUAGE>ENG
</SONRS>
</SIGNONMSGSRSV1>
`

// Card statement in USD with foreign purchases in IDR and EUR.
const sampleCreditCardOFX = ofxHeader + `<CREDITCARDMSGSRSV1>
<CCSTMTTRNRS>
<TRNUID>1
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<CCSTMTRS>
<CURDEF>USD
<CCACCTFROM>
<ACCTID>4111111111111111
</CCACCTFROM>
<BANKTRANLIST>
<DTSTART>20240101120000[0:GMT]
<DTEND>20240131120000[0:GMT]
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20240120120000[0:GMT]
<TRNAMT>-12.40
<FITID>CC2024012001
<NAME>WARUNG BALI
<ORIGCURRENCY>
<CURRATE>0.000062
<CURSYM>IDR
</ORIGCURRENCY>
</STMTTRN>
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20240110120000[0:GMT]
<TRNAMT>-6.17
<FITID>CC2024011001
<NAME>WARUNG UBUD
<ORIGCURRENCY>
<CURRATE>0.0000617
<CURSYM>IDR
</ORIGCURRENCY>
</STMTTRN>
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20240115120000[0:GMT]
<TRNAMT>-15.00
<FITID>CC2024011501
<NAME>NETFLIX.COM
</STMTTRN>
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20240112120000[0:GMT]
<TRNAMT>-10.90
<FITID>CC2024011201
<NAME>CAFE PARIS
<CURRENCY>
<CURRATE>1.09
<CURSYM>EUR
</CURRENCY>
</STMTTRN>
</BANKTRANLIST>
<LEDGERBAL>
<BALAMT>-500.00
<DTASOF>20240131120000[0:GMT]
</LEDGERBAL>
</CCSTMTRS>
</CCSTMTTRNRS>
</CREDITCARDMSGSRSV1>
</OFX>`

const sampleBankOFX = ofxHeader + `<BANKMSGSRSV1>
<STMTTRNRS>
<TRNUID>1
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<STMTRS>
<CURDEF>RUB
<BANKACCTFROM>
<BANKID>123456789
<ACCTID>1234567890
<ACCTTYPE>CHECKING
</BANKACCTFROM>
<BANKTRANLIST>
<DTSTART>20240101120000[0:GMT]
<DTEND>20240131120000[0:GMT]
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20240105120000[0:GMT]
<TRNAMT>-9150.00
<FITID>2024010501
<NAME>HOTEL
<ORIGCURRENCY>
<CURRATE>91.5
<CURSYM>USD
</ORIGCURRENCY>
</STMTTRN>
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20240106120000[0:GMT]
<TRNAMT>-100.00
<FITID>2024010601
<NAME>SAME CURRENCY
<ORIGCURRENCY>
<CURRATE>1
<CURSYM>RUB
</ORIGCURRENCY>
</STMTTRN>
</BANKTRANLIST>
<LEDGERBAL>
<BALAMT>1000.00
<DTASOF>20240131120000[0:GMT]
</LEDGERBAL>
</STMTRS>
</STMTTRNRS>
</BANKMSGSRSV1>
</OFX>`

func testParser() *Parser {
	return NewParser(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestParseRatesCreditCard(t *testing.T) {
	obs, err := testParser().ParseRates(context.Background(), strings.NewReader(sampleCreditCardOFX))
	require.NoError(t, err)
	require.Len(t, obs, 3)

	// oldest first
	assert.Equal(t, "CC2024011001", obs[0].FiTID)
	assert.Equal(t, model.Pair{Base: "IDR", Quote: "USD"}, obs[0].Pair)
	assert.InDelta(t, 0.0000617, obs[0].Rate, 1e-12)

	assert.Equal(t, model.Pair{Base: "EUR", Quote: "USD"}, obs[1].Pair)
	assert.InDelta(t, 1.09, obs[1].Rate, 1e-12)

	assert.Equal(t, "CC2024012001", obs[2].FiTID)
	assert.True(t, obs[2].Date.After(obs[0].Date))
}

func TestParseRatesBankSkipsInvalid(t *testing.T) {
	obs, err := testParser().ParseRates(context.Background(), strings.NewReader(sampleBankOFX))
	require.NoError(t, err)
	require.Len(t, obs, 1)
	assert.Equal(t, model.Pair{Base: "USD", Quote: "RUB"}, obs[0].Pair)
	assert.InDelta(t, 91.5, obs[0].Rate, 1e-9)
}

func TestParseRatesInvalidFile(t *testing.T) {
	_, err := testParser().ParseRates(context.Background(), strings.NewReader("not an ofx file"))
	require.Error(t, err)
}

func TestParseRatesCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := testParser().ParseRates(ctx, strings.NewReader(sampleBankOFX))
	require.ErrorIs(t, err, context.Canceled)
}

func TestLatestRates(t *testing.T) {
	obs, err := testParser().ParseRates(context.Background(), strings.NewReader(sampleCreditCardOFX))
	require.NoError(t, err)

	table := LatestRates(obs)
	assert.Len(t, table, 2)
	rate, ok := table.Get("IDR", "USD")
	require.True(t, ok)
	assert.InDelta(t, 0.000062, rate, 1e-12)
	rate, ok = table.Get("EUR", "USD")
	require.True(t, ok)
	assert.InDelta(t, 1.09, rate, 1e-12)
}

func TestPreprocessOFX(t *testing.T) {
	p := testParser()
	out := p.preprocessOFX("\n\n<SEVERITY>Warn\n<CODE\n")
	assert.Equal(t, "<SEVERITY>WARN\n<CODE>\n", out)
}
