package schema_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zapcampo/convoflow/pkg/domain"
	"github.com/zapcampo/convoflow/pkg/schema"
)

func decodeJSON(t *testing.T, doc string) any {
	t.Helper()
	var raw any
	require.NoError(t, json.Unmarshal([]byte(doc), &raw))
	return raw
}

func TestDecode_ValidFlow(t *testing.T) {
	raw := decodeJSON(t, `{
		"versao": "1.0",
		"inicio": "boas_vindas",
		"passos": [
			{"id": "boas_vindas", "tipo": "mensagem", "mensagem": "Olá!", "proxima": "escolha"},
			{"id": "escolha", "tipo": "escolha", "pergunta": "Interesse?", "opcoes": [
				{"texto": "Comprar", "valor": "comprar", "proxima": "acao"},
				{"texto": "Sair", "valor": "sair"}
			]},
			{"id": "acao", "tipo": "executar", "acao": "calcular_score", "parametros": {"peso": 2}, "proxima": null}
		]
	}`)

	flow, err := schema.Decode(raw)
	require.NoError(t, err)

	assert.Equal(t, "1.0", flow.Version)
	assert.Equal(t, "boas_vindas", flow.StartStepID)
	require.Len(t, flow.Steps, 3)

	msg, ok := flow.Steps[0].(*domain.MessageStep)
	require.True(t, ok)
	assert.Equal(t, "Olá!", msg.Text)
	require.NotNil(t, msg.Next)
	assert.Equal(t, "escolha", *msg.Next)

	choice, ok := flow.Steps[1].(*domain.ChoiceStep)
	require.True(t, ok)
	require.Len(t, choice.Options, 2)
	assert.Equal(t, "comprar", choice.Options[0].Value)
	assert.Equal(t, "acao", choice.Options[0].Next)
	assert.Empty(t, choice.Options[1].Next, "option without proxima ends the conversation")

	action, ok := flow.Steps[2].(*domain.ActionStep)
	require.True(t, ok)
	assert.Equal(t, "calcular_score", action.Action)
	assert.Nil(t, action.Next)
}

func TestDecode_MissingRequiredFields(t *testing.T) {
	raw := decodeJSON(t, `{
		"passos": [
			{"id": "a", "tipo": "mensagem", "proxima": null}
		]
	}`)

	_, err := schema.Decode(raw)
	require.Error(t, err)

	fields := schema.FieldErrors(err)
	reasons := make(map[string]string, len(fields))
	for _, fe := range fields {
		reasons[fe.Path] = fe.Reason
	}

	assert.Equal(t, "Version is required", reasons["versao"])
	assert.Equal(t, "Start step ID is required", reasons["inicio"])
	assert.Equal(t, "Message content is required", reasons["passos.0.mensagem"])
}

func TestDecode_UnknownStepType(t *testing.T) {
	raw := decodeJSON(t, `{
		"versao": "1.0",
		"inicio": "a",
		"passos": [{"id": "a", "tipo": "video", "mensagem": "x"}]
	}`)

	_, err := schema.Decode(raw)
	require.Error(t, err)

	fields := schema.FieldErrors(err)
	require.Len(t, fields, 1)
	assert.Equal(t, "passos.0.tipo", fields[0].Path)
	assert.Contains(t, fields[0].Reason, "invalid step type")
}

func TestDecode_ChoiceOptionValidation(t *testing.T) {
	raw := decodeJSON(t, `{
		"versao": "1.0",
		"inicio": "c",
		"passos": [
			{"id": "c", "tipo": "escolha", "pergunta": "Qual?", "opcoes": [
				{"texto": "", "valor": ""}
			]}
		]
	}`)

	_, err := schema.Decode(raw)
	require.Error(t, err)

	var paths []string
	for _, fe := range schema.FieldErrors(err) {
		paths = append(paths, fe.Path)
	}
	assert.Contains(t, paths, "passos.0.opcoes.0.texto")
	assert.Contains(t, paths, "passos.0.opcoes.0.valor")
}

func TestDecode_EmptyStepList(t *testing.T) {
	raw := decodeJSON(t, `{"versao": "1.0", "inicio": "a", "passos": []}`)

	_, err := schema.Decode(raw)
	require.Error(t, err)

	fields := schema.FieldErrors(err)
	require.Len(t, fields, 1)
	assert.Equal(t, "At least one step is required", fields[0].Reason)
}

func TestDecode_IgnoresUnknownKeys(t *testing.T) {
	raw := decodeJSON(t, `{
		"versao": "1.0",
		"inicio": "a",
		"autor": "equipe",
		"passos": [
			{"id": "a", "tipo": "mensagem", "mensagem": "Oi", "proxima": null, "cor": "azul"}
		]
	}`)

	flow, err := schema.Decode(raw)
	require.NoError(t, err)
	assert.Len(t, flow.Steps, 1)
}
