package events

import (
	"context"
	"encoding/json"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const appointmentConfirmedQueue = "appointment.confirmed"

// PublishAppointmentConfirmed publica o evento na fila "appointment.confirmed".
// Qualquer erro é logado e retornado para o chamador decidir ignorar; a
// confirmação do agendamento nunca depende do broker. Mensagens persistentes.
func PublishAppointmentConfirmed(ctx context.Context, url string, event AppointmentConfirmedEvent) error {
	conn, err := amqp.Dial(url)
	if err != nil {
		log.Printf("rabbitmq: falha ao conectar: %v", err)
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.Printf("rabbitmq: falha ao abrir canal: %v", err)
		return err
	}
	defer func() { _ = ch.Close() }()

	// Garante que a fila existe (idempotente). Durável para sobreviver a
	// restart do broker.
	if _, err := ch.QueueDeclare(
		appointmentConfirmedQueue, // name
		true,                      // durable
		false,                     // autoDelete
		false,                     // exclusive
		false,                     // noWait
		nil,                       // args
	); err != nil {
		log.Printf("rabbitmq: falha ao declarar fila: %v", err)
		return err
	}

	body, err := json.Marshal(event)
	if err != nil {
		log.Printf("rabbitmq: falha ao serializar evento: %v", err)
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}

	if err := ch.PublishWithContext(ctx,
		"",                        // default exchange
		appointmentConfirmedQueue, // routing key = nome da fila
		false,                     // mandatory
		false,                     // immediate
		pub,
	); err != nil {
		log.Printf("rabbitmq: falha ao publicar: %v", err)
		return err
	}

	return nil
}
